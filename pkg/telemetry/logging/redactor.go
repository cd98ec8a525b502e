package logging

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Redactor scrubs credentials from log fields.
type Redactor struct {
	patterns []redactPattern
	literals []string
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternGoogleAPIKey = "google_api_key"
	PatternKeyParam     = "key_param"
	PatternGoogHeader   = "goog_api_key_header"
	PatternBearerToken  = "bearer_token"
)

// defaultPatterns are applied in order. The query-parameter pattern runs
// after the key-shape pattern so that arbitrary key values are still caught.
var defaultPatterns = []redactPattern{
	{
		name:        PatternGoogleAPIKey,
		regex:       regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
		replacement: "AIza***",
	},
	{
		name:        PatternKeyParam,
		regex:       regexp.MustCompile(`([?&](?:key|api_key|apikey)=)[^&\s"']+`),
		replacement: "${1}***",
	},
	{
		name:        PatternGoogHeader,
		regex:       regexp.MustCompile(`(?i)(x-goog-api-key["']?\s*[:=]\s*["']?)[^\s"',}]+`),
		replacement: "${1}***",
	},
	{
		name:        PatternBearerToken,
		regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
		replacement: "Bearer ***",
	},
}

// NewRedactor creates a Redactor with the built-in patterns plus the given
// literal secret values. Empty literals are ignored.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{patterns: defaultPatterns}
	for _, s := range secrets {
		if s != "" {
			r.literals = append(r.literals, s)
		}
	}
	return r
}

// RedactString redacts credentials from a string value.
func (r *Redactor) RedactString(value string) string {
	if r == nil || value == "" {
		return value
	}

	redacted := value
	for _, lit := range r.literals {
		redacted = strings.ReplaceAll(redacted, lit, "***")
	}
	for _, p := range r.patterns {
		redacted = p.regex.ReplaceAllString(redacted, p.replacement)
	}
	return redacted
}

// RedactArgs redacts credentials from variadic log arguments.
// Args are in the form: key1, value1, key2, value2, ...
func (r *Redactor) RedactArgs(args ...any) []any {
	if r == nil || len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		if key, ok := redacted[i-1].(string); ok && isSensitiveKey(key) {
			redacted[i] = redactValue(redacted[i])
			continue
		}
		switch v := redacted[i].(type) {
		case string:
			redacted[i] = r.RedactString(v)
		case error:
			redacted[i] = r.RedactString(v.Error())
		}
	}

	return redacted
}

// RedactAttr redacts a single slog attribute, descending into groups.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if r == nil {
		return a
	}

	if isSensitiveKey(a.Key) && a.Value.Kind() != slog.KindGroup {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, "***")
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]any, len(group))
		for i, ga := range group {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Group(a.Key, out...)
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case error:
			return slog.String(a.Key, r.RedactString(v.Error()))
		case fmt.Stringer:
			return slog.String(a.Key, r.RedactString(v.String()))
		}
	}
	return a
}

// isSensitiveKey checks if a key name indicates a credential.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	for _, sensitive := range []string{
		"secret", "token", "api_key", "apikey", "password",
		"authorization", "credential",
	} {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

func redactValue(value any) any {
	if s, ok := value.(string); ok && s == "" {
		return ""
	}
	return "***"
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
