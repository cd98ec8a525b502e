// Package logging provides structured logging with credential redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging in JSON or text format
//   - Redaction of Gemini API keys wherever they appear in a log line
//   - Request ID, model and sampled trace ID taken from the context of
//     every *Context call
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//	slog.SetDefault(logger.Slog())
//
//	logger.Info("upstream call failed",
//	    "url", "https://generativelanguage.googleapis.com/...?key=AIza...", // key=***
//	    "api_key", apiKey, // ***
//	)
//
// # Redaction
//
// Redaction happens in the slog.Handler, so it also covers package-level
// slog calls once the logger is installed as the default:
//
//   - AIza-prefixed Google API keys: AIzaSy... → AIza***
//   - key= query parameters: ?key=abc → ?key=***
//   - Bearer tokens: Bearer abc → Bearer ***
//   - attributes whose name contains secret, token, api_key, ... → ***
//   - literal secret values passed in Config.Secrets
package logging
