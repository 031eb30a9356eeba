package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject is returned when the response holds no balanced JSON object.
var ErrNoJSONObject = errors.New("no JSON object found in response")

// ExtractJSON returns the first balanced {...} span of response. Braces inside
// JSON string literals are ignored, so markdown fences and prose around the
// object are skipped.
func ExtractJSON(response string) (string, error) {
	start := strings.IndexByte(response, '{')
	for start != -1 {
		if end := matchBrace(response, start); end != -1 {
			return response[start : end+1], nil
		}
		// Unbalanced from here; try the next opening brace.
		next := strings.IndexByte(response[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSONObject
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return i
			}
		}
	}
	return -1
}

// ParseObject extracts the first JSON object from the model response and
// decodes it into a generic map.
func ParseObject(response string) (map[string]any, error) {
	jsonContent, err := ExtractJSON(strings.TrimSpace(response))
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonContent), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return obj, nil
}
