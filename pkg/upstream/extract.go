package upstream

// Lookup is the result of one extraction step.
type Lookup struct {
	Text  string
	Found bool
}

// step is a path into a decoded JSON document. Elements are object keys
// (string) or array indexes (int).
type step []any

// extractionOrder lists where the generated text may live, most specific
// first: the generateContent shape, then the legacy output shape.
var extractionOrder = []step{
	{"candidates", 0, "content", "parts", 0, "text"},
	{"output", 0, "content", "text"},
}

// ExtractText returns the first non-empty string found along the known
// response shapes, or "" when none matches. It is pure and never panics.
func ExtractText(doc any) string {
	for _, s := range extractionOrder {
		if l := lookup(doc, s); l.Found {
			return l.Text
		}
	}
	return ""
}

// lookup walks path through doc. A missing key, an out-of-range index, a
// type mismatch along the way, or a final value that is not a non-empty
// string all yield Found=false.
func lookup(doc any, path step) Lookup {
	cur := doc
	for _, elem := range path {
		switch key := elem.(type) {
		case string:
			obj, ok := cur.(map[string]any)
			if !ok {
				return Lookup{}
			}
			if cur, ok = obj[key]; !ok {
				return Lookup{}
			}
		case int:
			arr, ok := cur.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return Lookup{}
			}
			cur = arr[key]
		default:
			return Lookup{}
		}
	}

	text, ok := cur.(string)
	if !ok || text == "" {
		return Lookup{}
	}
	return Lookup{Text: text, Found: true}
}
