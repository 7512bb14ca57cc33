package agent

import (
	"encoding/json"
	"strings"
)

// parseJSON decodes a model response that should be a JSON object. Models
// often wrap the object in prose or code fences, so on failure it retries on
// the substring between the first '{' and the last '}'. That is the only
// recovery applied; anything else reports failure.
func parseJSON(text string) (map[string]any, bool) {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, true
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, false
	}
	return out, true
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return strings.TrimSpace(v)
}

func boolField(m map[string]any, key string, fallback bool) bool {
	v, ok := m[key].(bool)
	if !ok {
		return fallback
	}
	return v
}
