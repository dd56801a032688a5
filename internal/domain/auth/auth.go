package auth

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for login.
var (
	// ErrCredentialsRequired is returned when the username or password is blank.
	ErrCredentialsRequired = errors.New("username and password are required")
	// ErrLoginFailed is returned when the auth endpoint rejects the credentials
	// or cannot be reached.
	ErrLoginFailed = errors.New("login failed")
)

// Credentials is the username/password pair forwarded to the auth endpoint.
type Credentials struct {
	Username string
	Password string
}

// Validate checks that both fields are non-empty. Whitespace is passed on
// as is; the auth endpoint decides whether it is a valid credential.
func (c Credentials) Validate() error {
	if c.Username == "" || c.Password == "" {
		return ErrCredentialsRequired
	}
	return nil
}

// Authenticator exchanges credentials for an opaque session token.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (string, error)
}

// Login validates creds and only then calls the authenticator. A failure of
// the remote call is reported as ErrLoginFailed wrapping the cause.
func Login(ctx context.Context, a Authenticator, creds Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	token, err := a.Login(ctx, creds)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if token == "" {
		return "", errors.Wrap(ErrLoginFailed, "empty token")
	}
	return token, nil
}
