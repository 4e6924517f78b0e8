package gates

import "strings"

// Filter keeps only rows whose gate name (column 0) matches one of the
// given names, case-insensitively. An empty name list is a no-op and the
// input is returned unchanged. Rows without any columns are skipped.
//
// Filter is pure: it never modifies the input matrix.
func Filter(m Matrix, names []string) Matrix {
	if len(names) == 0 {
		return m
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[strings.ToLower(name)] = struct{}{}
	}

	out := make(Matrix, 0, len(m))
	for _, row := range m {
		if len(row) == 0 {
			continue
		}
		if _, ok := wanted[strings.ToLower(row[0])]; ok {
			out = append(out, row)
		}
	}
	return out
}
