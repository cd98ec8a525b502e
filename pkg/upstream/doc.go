// Package upstream is the relay's client for the Gemini generateContent API.
//
// A call is a single POST with the prompt wrapped as
//
//	{"contents":[{"parts":[{"text":"<prompt>"}]}]}
//
// and the credential passed as the key query parameter. There are no
// retries. Every HTTP status is returned to the caller as a RawResponse;
// only transport failures produce an error, and that error is a
// *TransportError with the credential masked.
//
// Response normalization is split into small functions that never fail:
// ReadBody (unreadable body becomes empty), ParseDocument (non-JSON becomes
// {}) and ExtractText (ordered lookups over the known response shapes).
package upstream
