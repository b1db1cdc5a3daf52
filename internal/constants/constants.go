package constants

import "time"

const (
	TableCacheTTL     = 1 * time.Hour
	SessionTTL        = 12 * time.Hour
	SessionSweepEvery = 10 * time.Minute
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// MaxValidAge is the data-quality ceiling: parsed ages above it are
	// treated as data-entry errors and stored as missing.
	MaxValidAge = 100

	SearchDisplayLimit = 50

	// InternationalDetailLimit caps how many international fans are listed
	// individually before the dashboard falls back to grouped counts.
	InternationalDetailLimit = 20

	DashboardAgeBins    = 20
	ClubAgeBins         = 15
	SegmentPreviewLimit = 20
	ImportListLimit     = 50
)

// HeaderRowIndex is the zero-based row holding column names inside each
// sheet; row 0 is a banner and is discarded.
const HeaderRowIndex = 1
