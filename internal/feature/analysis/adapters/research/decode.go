package research

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSON = errors.New("response contains no JSON object")

// extractJSON strips markdown code fences and any prose around the outermost
// JSON object of a model response.
func extractJSON(text string) (string, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", errNoJSON
	}
	return s[start : end+1], nil
}

// answer is a flat JSON object whose values may be strings, numbers or lists.
type answer map[string]string

func (a *answer) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(answer, len(raw))
	for k, v := range raw {
		out[strings.ToLower(strings.TrimSpace(k))] = scalar(v)
	}
	*a = out
	return nil
}

// scalar renders a JSON value as display text. Lists are joined with ", ".
func scalar(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return ""
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return strings.TrimSpace(s)
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, it := range items {
				if s := scalar(it); s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, ", ")
		}
	}
	return string(v)
}

func decodeAnswer(text string) (answer, error) {
	js, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var a answer
	if err := json.Unmarshal([]byte(js), &a); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeMarket(text string) (map[string]answer, error) {
	js, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var m map[string]answer
	if err := json.Unmarshal([]byte(js), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// usable reports whether a model value carries information.
func usable(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "n/a", "na", "unknown", "none", "null", "-":
		return false
	}
	return true
}
