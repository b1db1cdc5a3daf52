package domain

import (
	"time"
)

// FanRecord is one normalized row of the fan table. Age is nil when the
// source cell was empty, non-numeric, or above the validity ceiling.
type FanRecord struct {
	FullName    string
	Email       string
	Club        string // source sheet name, upper-cased
	Age         *int
	Sex         string
	Nationality string
	Document    string
	Alias       string
}

// HasAge reports whether the record carries a usable age.
func (f *FanRecord) HasAge() bool {
	return f.Age != nil
}

// Credential is one username/password row from the credential file.
// Password holds either a plaintext value or a bcrypt hash.
type Credential struct {
	Username string
	Password string
}

// Session is an authenticated session issued at login. Tokens are opaque
// nanoids; a session past ExpiresAt is treated as absent.
type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ImportLog records one completed workbook load.
type ImportLog struct {
	ID            string // nanoid
	WorkbookPath  string
	SheetsParsed  int
	SheetsSkipped int
	SheetsFailed  int
	RowsKept      int
	RowsDropped   int
	LoadedAt      time.Time
}
