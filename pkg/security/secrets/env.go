package secrets

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
)

// EnvProvider reads secrets from the process environment. A secret name
// maps to Prefix plus the name upper-cased with hyphens turned into
// underscores, so "gemini-api-key" is read from GEMINI_API_KEY.
type EnvProvider struct {
	Prefix string
}

func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{Prefix: prefix}
}

// GetSecret returns the variable's value with surrounding whitespace
// removed. Unset and blank variables both count as not found.
func (p *EnvProvider) GetSecret(_ context.Context, name string) (string, error) {
	key := p.EnvVar(name)
	raw, set := os.LookupEnv(key)
	value := strings.TrimSpace(raw)
	if value == "" {
		state := "unset"
		if set {
			state = "empty"
		}
		return "", fmt.Errorf("%w: $%s is %s", ErrNotFound, key, state)
	}
	return value, nil
}

// ListSecrets names the non-empty variables under Prefix. An unprefixed
// provider lists nothing rather than the whole environment.
func (p *EnvProvider) ListSecrets(context.Context) ([]string, error) {
	if p.Prefix == "" {
		return nil, nil
	}

	var names []string
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, p.Prefix) || strings.TrimSpace(value) == "" {
			continue
		}
		names = append(names, secretName(strings.TrimPrefix(key, p.Prefix)))
	}
	slices.Sort(names)
	return names, nil
}

func (p *EnvProvider) Provider() string { return "env" }

// Supports is always true: the environment is the last link in the chain.
func (p *EnvProvider) Supports(string) bool { return true }

// EnvVar returns the variable consulted for name.
func (p *EnvProvider) EnvVar(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func secretName(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "-"))
}
