// internal/llm/json.go
package llm

import (
	"errors"
	"strings"
	"unicode"
)

var ErrNoJSONObject = errors.New("no JSON object in model output")

var fenceReplacer = strings.NewReplacer("```json", "", "```JSON", "", "```", "")

// ExtractJSON returns the first balanced JSON object in raw model output,
// dropping code fences and surrounding prose.
func ExtractJSON(raw string) (string, error) {
	s := fenceReplacer.Replace(raw)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
			return -1
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", ErrNoJSONObject
}
