package tool

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// BuildCacheKey derives the deterministic cache key for one invocation:
// operation id + sorted normalized parameters + stable hash. Two calls
// that differ only in parameter order or key casing share a key.
func BuildCacheKey(op string, params map[string]any) string {
	h := fnv.New64a()
	h.Write([]byte(op))
	h.Write([]byte{0})

	for _, part := range normalizeParams(params) {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}

	return fmt.Sprintf("%s:%016x", op, h.Sum64())
}

func normalizeParams(params map[string]any) []string {
	parts := make([]string, 0, len(params))
	for k, v := range params {
		parts = append(parts, strings.ToLower(strings.TrimSpace(k))+"="+normalizeValue(v))
	}
	sort.Strings(parts)
	return parts
}

func normalizeValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(t))
	case []string:
		cp := make([]string, len(t))
		for i, s := range t {
			cp[i] = strings.ToLower(strings.TrimSpace(s))
		}
		sort.Strings(cp)
		return strings.Join(cp, ",")
	case []any:
		cp := make([]string, len(t))
		for i, e := range t {
			cp[i] = normalizeValue(e)
		}
		sort.Strings(cp)
		return strings.Join(cp, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}
