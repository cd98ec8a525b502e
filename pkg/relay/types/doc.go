// Package types defines the relay's response envelope.
//
// Every relay response except the OPTIONS preflight carries an Envelope:
//
//	{"ok":true,"result":"Hello","raw":{...}}
//	{"ok":false,"error":"prompt is required and must be a string"}
//	{"ok":false,"error":"Upstream API error","status":429,"raw":"..."}
//	{"ok":false,"error":"Server error calling Gemini","details":"..."}
//
// Fields that do not apply to an outcome are omitted. The constructors
// (Success, Failure, UpstreamFailure, ServerFailure) are the only way the
// relay builds envelopes, which keeps ok consistent with the status.
package types
