// Package health provides liveness, readiness and version endpoints for
// the standalone relay server.
//
// Liveness (/health) always succeeds while the process serves HTTP.
// Readiness (/ready) runs every registered CheckFunc and answers 503 if any
// fails; the relay registers CredentialCheck so that an instance without a
// Gemini key is taken out of rotation instead of answering every prompt
// with a 500.
package health
