package types

import (
	"encoding/json"
)

// Client-visible error messages. Clients match on these strings, so they
// are part of the wire contract.
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgPromptRequired   = "prompt is required and must be a string"
	MsgKeyNotConfigured = "GEMINI_API_KEY not configured"
	MsgUpstreamError    = "Upstream API error"
	MsgServerError      = "Server error calling Gemini"
	MsgInternalError    = "Internal server error"
)

// Envelope is the body of every relay response except the CORS preflight.
//
// OK is true exactly when the response status is 200. Raw holds the parsed
// upstream JSON on success and the upstream body as a JSON string on an
// upstream error.
type Envelope struct {
	// OK reports whether the prompt was relayed successfully.
	OK bool `json:"ok"`

	// Result is the extracted generated text (success only, may be "").
	Result *string `json:"result,omitempty"`

	// Raw is the upstream payload.
	Raw json.RawMessage `json:"raw,omitempty"`

	// Error is a short human-readable failure message.
	Error string `json:"error,omitempty"`

	// Status is the upstream HTTP status (upstream errors only).
	Status int `json:"status,omitempty"`

	// Details describes an unexpected failure.
	Details string `json:"details,omitempty"`
}

// Success builds the 200 envelope.
func Success(result string, raw json.RawMessage) Envelope {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	return Envelope{OK: true, Result: &result, Raw: raw}
}

// Failure builds an envelope carrying only an error message.
func Failure(message string) Envelope {
	return Envelope{Error: message}
}

// UpstreamFailure builds the 502 envelope for a non-2xx upstream status.
func UpstreamFailure(status int, text string) Envelope {
	raw, err := json.Marshal(text)
	if err != nil {
		raw = []byte(`""`)
	}
	return Envelope{
		Error:  MsgUpstreamError,
		Status: status,
		Raw:    raw,
	}
}

// ServerFailure builds the 500 envelope for an unexpected failure.
func ServerFailure(details string) Envelope {
	return Envelope{
		Error:   MsgServerError,
		Details: details,
	}
}
