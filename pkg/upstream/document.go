package upstream

import (
	"bytes"
	"encoding/json"
)

// emptyObject is the fallback document for unreadable or non-JSON bodies.
var emptyObject = json.RawMessage(`{}`)

// ParseResult is the outcome of parsing an upstream body as JSON.
type ParseResult struct {
	// Doc is the decoded document (map, slice, string, float64, bool or nil).
	Doc any

	// Raw is the compacted JSON text of Doc, or {} on fallback.
	Raw json.RawMessage

	// Err is the parse failure, if any.
	Err error
}

// ParseDocument decodes body as a single JSON value. It never fails: when
// body is not valid JSON the result is an empty object with Err set.
func ParseDocument(body []byte) ParseResult {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return emptyDocument(err)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return emptyDocument(err)
	}

	return ParseResult{Doc: doc, Raw: json.RawMessage(compact.Bytes())}
}

func emptyDocument(err error) ParseResult {
	return ParseResult{
		Doc: map[string]any{},
		Raw: emptyObject,
		Err: err,
	}
}
