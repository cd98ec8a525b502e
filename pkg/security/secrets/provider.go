package secrets

import (
	"context"
	"errors"
)

// GeminiAPIKey is the secret name of the upstream credential. The env
// provider maps it to GEMINI_API_KEY and the file provider to a file of
// the same name.
const GeminiAPIKey = "gemini-api-key"

// ErrNotFound is returned (wrapped) when no provider holds a non-empty value
// for the requested secret.
var ErrNotFound = errors.New("secret not found")

// Resolver is the read side of secret lookup used by request handlers.
type Resolver interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SecretProvider retrieves secrets from a backend.
//
// Providers can be chained together with priority-based fallback through
// a Manager.
type SecretProvider interface {
	Resolver

	// ListSecrets returns all secret names available from this provider.
	// Values are not included.
	ListSecrets(ctx context.Context) ([]string, error)

	// Provider returns the provider name (env, file).
	Provider() string

	// Supports indicates if this provider supports the given secret name.
	Supports(name string) bool
}

// RefreshableProvider can reload secrets without restart.
type RefreshableProvider interface {
	SecretProvider

	// Refresh drops any cached values so the next lookup hits the backend.
	Refresh(ctx context.Context) error
}
