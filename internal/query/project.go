package query

import "encoding/json"

// Project restricts a serialized entity to the requested fields. An
// empty field list returns v unchanged. Fields a struct never
// serializes (password hash, internal flags) cannot be resurrected
// here: projection only narrows what the JSON tags already expose.
func Project(v any, fields []string) any {
	if len(fields) == 0 {
		return v
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var full map[string]json.RawMessage
	if err := json.Unmarshal(raw, &full); err != nil {
		return v
	}
	out := make(map[string]json.RawMessage, len(fields)+1)
	if id, ok := full["id"]; ok {
		out["id"] = id
	}
	for _, f := range fields {
		if val, ok := full[f]; ok {
			out[f] = val
		}
	}
	return out
}

// ProjectAll applies Project to every element of a slice.
func ProjectAll[T any](items []T, fields []string) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, Project(it, fields))
	}
	return out
}
