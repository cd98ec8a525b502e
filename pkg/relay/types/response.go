package types

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WriteJSON encodes data before touching w, so an unencodable value turns
// into the generic 500 envelope instead of a truncated body behind the
// intended status. The encoding error is still returned.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	body, encErr := json.Marshal(data)
	if encErr != nil {
		encErr = fmt.Errorf("encode response: %w", encErr)
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(Failure(MsgInternalError))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(append(body, '\n')); err != nil && encErr == nil {
		return err
	}
	return encErr
}

// WriteEnvelope sends env as the response body.
func WriteEnvelope(w http.ResponseWriter, statusCode int, env Envelope) error {
	return WriteJSON(w, statusCode, env)
}
