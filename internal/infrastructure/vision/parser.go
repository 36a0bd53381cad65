package vision

import (
	"encoding/json"
	"strings"
)

// nameKeys are tried in order when the model answers with JSON
var nameKeys = []string{"medicamento", "nombre", "nombre_medicamento", "name", "medicine"}

// ParseMedicineName pulls the medicine name out of a model answer. It accepts JSON
// (optionally inside a markdown code fence) with any of the known keys, or plain text,
// in which case the first non-empty line is used. Malformed JSON yields "".
func ParseMedicineName(text string) string {
	body := stripCodeFence(strings.TrimSpace(text))
	if body == "" {
		return ""
	}

	// A JSON answer that does not parse (truncated output) carries no usable name
	if strings.HasPrefix(body, "{") {
		var fields map[string]any
		if err := json.Unmarshal([]byte(body), &fields); err != nil {
			return ""
		}
		return nameFromFields(fields)
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.Trim(strings.TrimSpace(line), `"'*-`)
		if line != "" {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

func nameFromFields(fields map[string]any) string {
	lowered := make(map[string]any, len(fields))
	for k, v := range fields {
		lowered[strings.ToLower(k)] = v
	}

	for _, key := range nameKeys {
		switch v := lowered[key].(type) {
		case string:
			if name := strings.TrimSpace(v); name != "" {
				return name
			}
		case []any:
			// Several medicines: the first one is looked up
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
				if m, ok := item.(map[string]any); ok {
					if name := nameFromFields(m); name != "" {
						return name
					}
				}
			}
		case map[string]any:
			if name := nameFromFields(v); name != "" {
				return name
			}
		}
	}
	return ""
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the language tag line ("```json")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
