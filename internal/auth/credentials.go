// Package auth holds the credential store and the session registry.
package auth

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"fan-insights/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore is the read-only list of login credentials, loaded once
// per process from a username,password CSV file.
type CredentialStore struct {
	byUsername map[string]domain.Credential
	logger     zerolog.Logger
}

func NewCredentialStore(path string, logger zerolog.Logger) (*CredentialStore, error) {
	f, err := os.Open(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to open credential file")
		return nil, fmt.Errorf("%w: %s: %v", ErrCredentialFile, path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to parse credential file")
		return nil, fmt.Errorf("%w: %s: %v", ErrCredentialFile, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: file is empty", ErrCredentialFile, path)
	}

	userCol, passCol, err := credentialColumns(rows[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCredentialFile, path, err)
	}

	store := &CredentialStore{
		byUsername: make(map[string]domain.Credential, len(rows)-1),
		logger:     logger,
	}
	for _, row := range rows[1:] {
		if userCol >= len(row) || passCol >= len(row) {
			continue
		}
		username := strings.TrimSpace(row[userCol])
		if username == "" {
			continue
		}
		store.byUsername[username] = domain.Credential{
			Username: username,
			Password: row[passCol],
		}
	}

	logger.Info().Int("count", len(store.byUsername)).Str("path", path).Msg("credentials loaded")
	return store, nil
}

func credentialColumns(header []string) (userCol, passCol int, err error) {
	userCol, passCol = -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "username":
			userCol = i
		case "password":
			passCol = i
		}
	}
	if userCol < 0 || passCol < 0 {
		return 0, 0, fmt.Errorf("header must contain username and password columns")
	}
	return userCol, passCol, nil
}

// CheckLogin reports whether the supplied credentials match a stored row.
// Stored passwords carrying a bcrypt prefix are verified as hashes; any
// other stored value is compared as an exact case-sensitive string.
func (s *CredentialStore) CheckLogin(username, password string) bool {
	cred, ok := s.byUsername[username]
	if !ok {
		return false
	}
	if isBcryptHash(cred.Password) {
		return bcrypt.CompareHashAndPassword([]byte(cred.Password), []byte(password)) == nil
	}
	return cred.Password == password
}

func isBcryptHash(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}
