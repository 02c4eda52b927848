// Package identity adapts external identity providers. The platform never
// stores credentials itself; it asks a Provider and keys accounts by email.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredential means the provider rejected the token or password.
	ErrInvalidCredential = errors.New("identity: invalid credential")
	// ErrAlreadyRegistered means the email already has a credential.
	ErrAlreadyRegistered = errors.New("identity: email already registered")
	// ErrUnsupported means the provider cannot perform the operation.
	ErrUnsupported = errors.New("identity: operation not supported by provider")
	// ErrNoEmail means the credential is valid but carries no email.
	ErrNoEmail = errors.New("identity: credential has no email")
)

// Identity is what a verified credential resolves to. ExpiresAt is when the
// credential itself stops being valid; zero when the provider does not say.
type Identity struct {
	Email     string
	Subject   string
	ExpiresAt time.Time
}

// ValidAt reports whether the credential has not expired at now.
func (i Identity) ValidAt(now time.Time) bool {
	return i.ExpiresAt.IsZero() || now.Before(i.ExpiresAt)
}

// SessionTokens are the tokens a successful password login yields.
type SessionTokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int
}

// CredentialVerifier resolves a bearer token to a verified identity.
type CredentialVerifier interface {
	VerifyCredential(ctx context.Context, token string) (*Identity, error)
}

// SessionIssuer mints session tokens for an email that was verified by
// another provider, such as a social login.
type SessionIssuer interface {
	IssueSession(ctx context.Context, email string) (*SessionTokens, error)
}

// Provider is the external identity collaborator.
type Provider interface {
	CredentialVerifier
	// AuthenticateWithPassword exchanges an email and password for session tokens.
	AuthenticateWithPassword(ctx context.Context, email, password string) (*SessionTokens, error)
	// Register creates a credential for a new account.
	Register(ctx context.Context, email, password string) error
	// SendPasswordReset asks the provider to start a password reset for email.
	SendPasswordReset(ctx context.Context, email string) error
}
