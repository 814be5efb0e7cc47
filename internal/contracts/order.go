package contracts

import "sort"

// Ordered returns the keys of m following order first (deduplicated), then any
// remaining keys sorted. Stages use it to visit tickers and sources in configured order.
func Ordered[V any](order []string, m map[string]V) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]struct{}, len(m))

	for _, k := range order {
		if _, ok := m[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}

	var rest []string
	for k := range m {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)

	return append(out, rest...)
}
