// Package auth defines the boundary to the external identity provider. The
// core never stores credentials; it consumes opaque identities and metadata
// hints issued by the provider and exchanges tokens on the user's behalf.
package auth

import (
	"context"
	"errors"
)

// Identity is the authenticated principal issued by the external provider.
// It carries facts only, no decisions: the opaque user ID, the email, and
// whatever display-name hints the provider recorded at registration time.
type Identity struct {
	// UserID is the provider-scoped unique identifier (sub).
	UserID string
	// Email is the address the identity registered with.
	Email string
	// EmailConfirmed reports whether the provider verified the address.
	EmailConfirmed bool
	// Metadata holds arbitrary key/value hints, e.g. a registration-time
	// display name under "username" or "full_name".
	Metadata map[string]string
}

// MetadataHint returns the first non-empty value among the given metadata
// keys, or "" when none is set.
func (id Identity) MetadataHint(keys ...string) string {
	for _, k := range keys {
		if v, ok := id.Metadata[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

// Session is the result of a successful sign-in or sign-up: the identity plus
// the bearer token the client presents on subsequent API calls.
type Session struct {
	Identity    Identity
	AccessToken string
	ExpiresIn   int
}

// Provider abstracts the external auth service. Implementations must be safe
// for concurrent use.
type Provider interface {
	// SignUp registers a new identity. Metadata hints (e.g. a chosen display
	// name) are stored with the identity and surface later via CurrentIdentity.
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Session, error)
	// SignIn exchanges credentials for a session. Bad credentials and
	// unconfirmed accounts are distinguished via sentinel errors.
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// SignOut revokes the given access token. Best effort.
	SignOut(ctx context.Context, accessToken string) error
	// CurrentIdentity resolves the identity behind an access token.
	CurrentIdentity(ctx context.Context, accessToken string) (*Identity, error)
}

// Sentinel errors mapped from provider responses. Handlers translate these
// into distinct user-facing messages.
var (
	// ErrInvalidCredentials covers wrong email/password pairs.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotConfirmed is returned when the provider refuses sign-in
	// because the address was never verified.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrEmailTaken is returned by SignUp when the address is registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken is returned when an access token is missing or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
)
