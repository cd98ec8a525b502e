package secrets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"relay-hq/gemini/pkg/config"
)

// Manager resolves a secret from an ordered chain of providers. The first
// provider that holds a value wins. Hits are cached for the configured
// TTL; misses never are, so a key added after startup is seen by the next
// request.
type Manager struct {
	providers []SecretProvider
	cache     *Cache
}

func NewManager(providers []SecretProvider, cacheConfig CacheConfig) *Manager {
	return &Manager{providers: providers, cache: NewCache(cacheConfig)}
}

// NewManagerFromConfig builds the relay's chain: the secrets directory
// when one is configured, then the process environment. A change seen by
// the directory watcher also empties the manager's cache.
func NewManagerFromConfig(cfg config.SecretsConfig) (*Manager, error) {
	var chain []SecretProvider
	var files *FileProvider
	if cfg.Dir != "" {
		fp, err := NewFileProvider(cfg.Dir, cfg.Watch)
		if err != nil {
			return nil, err
		}
		files = fp
		chain = append(chain, fp)
	}
	chain = append(chain, NewEnvProvider(""))

	m := NewManager(chain, CacheConfig{Enabled: cfg.CacheTTL > 0, TTL: cfg.CacheTTL})
	if files != nil {
		files.OnChange(m.cache.Clear)
	}
	return m, nil
}

// GetSecret walks the chain for name. The returned error wraps
// ErrNotFound when no provider had a value.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	if v, ok := m.cache.Get(name); ok {
		return v, nil
	}

	var errs []error
	for _, p := range m.providers {
		if !p.Supports(name) {
			continue
		}
		v, err := p.GetSecret(ctx, name)
		if err == nil {
			m.cache.Set(name, v)
			return v, nil
		}
		slog.DebugContext(ctx, "secret provider miss", "provider", p.Provider(), "name", name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Provider(), err))
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: no provider handles %q", ErrNotFound, name)
	}
	return "", fmt.Errorf("secret %q: %w", name, errors.Join(errs...))
}

// Refresh reloads every provider that supports it and empties the cache.
// The cache is emptied even when a provider fails.
func (m *Manager) Refresh(ctx context.Context) error {
	var errs []error
	for _, p := range m.providers {
		if rp, ok := p.(RefreshableProvider); ok {
			if err := rp.Refresh(ctx); err != nil {
				errs = append(errs, fmt.Errorf("refresh %s: %w", p.Provider(), err))
			}
		}
	}
	m.cache.Clear()
	return errors.Join(errs...)
}

// ListSecrets merges the names every provider can enumerate. A provider
// that fails to list is logged and skipped.
func (m *Manager) ListSecrets(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	for _, p := range m.providers {
		names, err := p.ListSecrets(ctx)
		if err != nil {
			slog.WarnContext(ctx, "cannot list secrets", "provider", p.Provider(), "error", err)
			continue
		}
		for _, n := range names {
			seen[n] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// Providers names the chain in lookup order.
func (m *Manager) Providers() []string {
	out := make([]string, 0, len(m.providers))
	for _, p := range m.providers {
		out = append(out, p.Provider())
	}
	return out
}

// Close releases provider resources such as directory watchers.
func (m *Manager) Close() error {
	var errs []error
	for _, p := range m.providers {
		if c, ok := p.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
