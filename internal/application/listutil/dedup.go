package listutil

// Identified is any record carrying a schedule API identifier.
type Identified interface {
	EntityID() int64
}

// UniqueBy keeps the first item for each key, preserving order.
// PRE: key is deterministic
// POST: no two returned items share a key; first occurrence's values are kept
func UniqueBy[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// MergeByID concatenates the lists in argument order and drops repeated identifiers.
// Call sites pass the nested (conference-scoped) list before the flat one,
// so nested records win.
func MergeByID[T Identified](lists ...[]T) []T {
	var total int
	for _, l := range lists {
		total += len(l)
	}
	all := make([]T, 0, total)
	for _, l := range lists {
		all = append(all, l...)
	}
	return UniqueBy(all, func(item T) int64 { return item.EntityID() })
}
