package proposal

import "strings"

// listDelimiters split loosely typed list fields given as a single string.
const listDelimiters = "\n、,，"

// CoerceList turns a decoded list field into trimmed, non-empty strings.
// It accepts a JSON array of strings or a delimited string; ok is false for
// any other shape.
func CoerceList(v any) (out []string, ok bool) {
	switch val := v.(type) {
	case nil:
		return nil, true
	case string:
		parts := strings.FieldsFunc(val, func(r rune) bool {
			return strings.ContainsRune(listDelimiters, r)
		})
		return trimAll(parts), true
	case []string:
		return trimAll(val), true
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			s, isString := item.(string)
			if !isString {
				return nil, false
			}
			parts = append(parts, s)
		}
		return trimAll(parts), true
	default:
		return nil, false
	}
}

func trimAll(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
