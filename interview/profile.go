package interview

// MergeProfile merges src into dst and returns the result. Nested objects
// are merged key by key; any other value in src replaces the one in dst.
// dst is not modified.
func MergeProfile(dst, src Profile) Profile {
	out := make(Profile, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = MergeProfile(dstMap, srcMap)
			continue
		}
		out[k] = v
	}
	return out
}
