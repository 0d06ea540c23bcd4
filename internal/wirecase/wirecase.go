// Package wirecase translates between the wire shape of rows
// (snake_case keys) and the application shape (camelCase keys).
// Both directions are pure and total: values they do not recognize
// pass through unchanged.
package wirecase

import "strings"

// ToAppCase converts every map key at every depth from snake_case to
// camelCase. Slices are mapped element-wise; everything that is not a
// map[string]interface{} or a slice passes through untouched, so values
// like times or byte blobs are never corrupted.
func ToAppCase(v interface{}) interface{} {
	return mapKeys(v, snakeToCamel)
}

// ToWireCase converts every map key at every depth from camelCase to
// snake_case.
func ToWireCase(v interface{}) interface{} {
	return mapKeys(v, camelToSnake)
}

func mapKeys(v interface{}, transform func(string) string) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[transform(k)] = mapKeys(inner, transform)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = mapKeys(inner, transform)
		}
		return out
	default:
		return v
	}
}

func snakeToCamel(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	parts := strings.Split(s, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
