// Package domain holds the shared analysis contracts used by both the
// incidence and summary engines.
package domain

import "strings"

// stratumSeparator joins stratum values into a map key. A non-printable
// separator keeps values containing commas or spaces unambiguous.
const stratumSeparator = "\x1f"

// Stratum is an ordered tuple of values from the configured grouping
// columns. An empty Stratum means all rows form one stratum. A missing
// value in a grouping column is carried as the empty string: a distinct,
// stable stratum value that is never dropped.
type Stratum []string

// Key returns a stable map key for the stratum
func (s Stratum) Key() string {
	return strings.Join(s, stratumSeparator)
}

// Compare orders strata lexicographically element by element
func (s Stratum) Compare(other Stratum) int {
	for i := 0; i < len(s) && i < len(other); i++ {
		if c := strings.Compare(s[i], other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(s) < len(other):
		return -1
	case len(s) > len(other):
		return 1
	default:
		return 0
	}
}

// Clone returns an independent copy of the stratum
func (s Stratum) Clone() Stratum {
	if s == nil {
		return nil
	}
	out := make(Stratum, len(s))
	copy(out, s)
	return out
}
