package health

import (
	"context"
	"errors"
	"fmt"

	"relay-hq/gemini/pkg/evidence"
	"relay-hq/gemini/pkg/security/secrets"
)

// CredentialCheck reports unhealthy when the Gemini credential cannot be
// resolved. The message never contains the credential itself.
func CredentialCheck(resolver secrets.Resolver) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := resolver.GetSecret(ctx, secrets.GeminiAPIKey); err != nil {
			if errors.Is(err, secrets.ErrNotFound) {
				return errors.New("GEMINI_API_KEY not configured")
			}
			return errors.New("credential lookup failed")
		}
		return nil
	}
}

// Counter is the part of evidence.Storage the storage check needs.
type Counter interface {
	Count(ctx context.Context, query *evidence.Query) (int64, error)
}

// StorageCheck reports unhealthy when the evidence store cannot answer a
// count query.
func StorageCheck(store Counter) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := store.Count(ctx, &evidence.Query{}); err != nil {
			return fmt.Errorf("evidence storage unavailable: %w", err)
		}
		return nil
	}
}
