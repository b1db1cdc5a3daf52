package auth

import "errors"

var (
	// ErrCredentialFile means the credential file is missing or malformed.
	// Fatal at startup.
	ErrCredentialFile = errors.New("credential file could not be loaded")

	// ErrInvalidCredentials is the single failure reported for a bad login.
	// It deliberately does not distinguish an unknown user from a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNoSession means the request carried no valid session token.
	ErrNoSession = errors.New("no active session")
)
