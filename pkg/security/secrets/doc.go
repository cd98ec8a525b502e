/*
Package secrets resolves the relay's upstream credential from pluggable sources.

# Overview

The Gemini API key is never part of the relay's configuration file. It is
looked up per request through a Manager so that an operator can rotate it
without restarting, and so that its absence affects only the request that
needed it.

# Secret Providers

Providers are chained with priority-based fallback:

  - File-Based Provider: one file per secret in a directory (Kubernetes or
    Docker secret mounts), permissions 0600 or 0400, optional fsnotify watch
  - Environment Variable Provider: secret "gemini-api-key" is read from
    GEMINI_API_KEY

# Basic Usage

	manager, err := secrets.NewManagerFromConfig(cfg.Secrets)
	if err != nil {
		return err
	}
	defer manager.Close()

	key, err := manager.GetSecret(ctx, secrets.GeminiAPIKey)
	if errors.Is(err, secrets.ErrNotFound) {
		// credential not configured
	}

# Caching

Resolved values are cached for CacheTTL. Lookups that fail are not cached.
When the file provider's watcher sees a change, both its own copy and the
manager cache are dropped.
*/
package secrets
