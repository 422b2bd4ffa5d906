package models

import "encoding/json"

// toJSON renders v for a jsonb column
func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// fromJSON decodes a jsonb column into v; empty columns leave v untouched
func fromJSON(s string, v any) {
	if s == "" || s == "null" {
		return
	}
	_ = json.Unmarshal([]byte(s), v)
}
