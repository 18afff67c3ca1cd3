package domain

// Map is a dynamic context type for machines defined outside Go code
// (YAML definitions, the HTTP server). It deep copies itself on Clone.
type Map map[string]any

// Clone returns a deep copy of nested maps and slices.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	return Map(deepCopyMap(m))
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case Map:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
