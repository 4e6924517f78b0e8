package cache

import (
	"sort"
	"strings"

	"github.com/jojapi/border-gates/pkg/gates"
)

// allGates is the key segment used when no gate filter is supplied.
const allGates = "all"

// Key identifies a cached matrix: one date range plus one filter-gate set.
type Key struct {
	// Range is the queried date range.
	Range gates.DateRange

	// Gates is the filter list, possibly empty. Order, case and
	// duplicates do not affect the generated key.
	Gates []string
}

// String generates a deterministic cache key string.
// Format: border_data:START:END:gate1,gate2 with gates sorted,
// deduplicated and lower-cased, or the sentinel "all" when unfiltered.
//
// Example:
//
//	border_data:01-12-2024:31-12-2024:hamzabeyli,kapıkule
func (k Key) String() string {
	parts := []string{"border_data", k.Range.StartString(), k.Range.EndString()}

	if len(k.Gates) == 0 {
		parts = append(parts, allGates)
		return strings.Join(parts, ":")
	}

	seen := make(map[string]struct{}, len(k.Gates))
	names := make([]string, 0, len(k.Gates))
	for _, g := range k.Gates {
		g = strings.ToLower(g)
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		names = append(names, g)
	}
	sort.Strings(names)

	parts = append(parts, strings.Join(names, ","))
	return strings.Join(parts, ":")
}
