package aggregate

// mergeContributions folds every contribution for a field, oldest first:
// arrays accumulate a deduplicated union, plain objects shallow-merge with
// later keys winning, and anything else falls back to the newest value.
func mergeContributions(contribs []contribution) any {
	newest := contribs[len(contribs)-1].value

	switch newest.(type) {
	case []any, []string:
		return unionArrays(contribs)
	case map[string]any:
		return shallowMergeObjects(contribs)
	default:
		return newest
	}
}

// unionArrays deduplicates by canonical serialization. Element order is not
// guaranteed beyond first-seen in timestamp order.
func unionArrays(contribs []contribution) []any {
	seen := make(map[string]struct{})
	var out []any
	for _, c := range contribs {
		for _, item := range asSlice(c.value) {
			key, ok := canonical(item)
			if !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

func shallowMergeObjects(contribs []contribution) map[string]any {
	out := make(map[string]any)
	for _, c := range contribs {
		obj, ok := c.value.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range obj {
			out[k] = v
		}
	}
	return out
}

func asSlice(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return nil
	}
}
