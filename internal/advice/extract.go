package advice

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject means the model output held no balanced {...} span.
var ErrNoJSONObject = errors.New("no JSON object in model output")

// ExtractJSONObject returns the first balanced top-level object in text.
// Braces inside string literals are ignored, so nested objects and values
// such as "{x}" do not end the span early. Surrounding prose and markdown
// fences are skipped.
func ExtractJSONObject(text string) (json.RawMessage, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return json.RawMessage(text[start : i+1]), nil
			}
		}
	}

	return nil, ErrNoJSONObject
}

// decodeModelJSON extracts the first object from text and decodes it into out.
func decodeModelJSON(text string, out any) error {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}

// isNullAnswer reports whether the model answered with a bare JSON null,
// possibly wrapped in a markdown fence.
func isNullAnswer(text string) bool {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "```json")
	t = strings.Trim(t, "`")
	return strings.EqualFold(strings.TrimSpace(t), "null")
}
