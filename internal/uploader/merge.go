package uploader

// Merge folds field fragments into base and returns it. When the base's
// current value for a field is a list, fragment identifiers not already
// present are appended; otherwise the field is overwritten wholesale.
// Fragments are applied in the order given, which for concurrent
// uploads is completion order.
func Merge(base Values, fragments ...Fragment) Values {
	if base == nil {
		base = Values{}
	}
	for _, frag := range fragments {
		for field, v := range frag {
			existing, ok := base[field]
			if !ok {
				base[field] = v
				continue
			}
			switch cur := existing.(type) {
			case []string:
				base[field] = appendUniqueStrings(cur, v)
			case []any:
				base[field] = appendUniqueAny(cur, v)
			default:
				base[field] = v
			}
		}
	}
	return base
}

func appendUniqueStrings(cur []string, v any) []string {
	seen := make(map[string]struct{}, len(cur))
	for _, s := range cur {
		seen[s] = struct{}{}
	}
	for _, s := range stringValues(v) {
		if _, ok := seen[s]; !ok {
			cur = append(cur, s)
			seen[s] = struct{}{}
		}
	}
	return cur
}

func appendUniqueAny(cur []any, v any) []any {
	seen := make(map[string]struct{}, len(cur))
	for _, x := range cur {
		if s, ok := x.(string); ok {
			seen[s] = struct{}{}
		}
	}
	for _, s := range stringValues(v) {
		if _, ok := seen[s]; !ok {
			cur = append(cur, s)
			seen[s] = struct{}{}
		}
	}
	return cur
}

// stringValues normalizes a fragment value to its identifier strings.
func stringValues(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, x := range val {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
