package tracker

import "strings"

// Exclusions is an immutable set of route prefixes for which all tracking is
// suppressed. Build it once and share it; the zero value excludes nothing.
type Exclusions struct {
	prefixes []string
}

func NewExclusions(prefixes []string) Exclusions {
	cp := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		cp = append(cp, p)
	}
	return Exclusions{prefixes: cp}
}

// Excluded reports whether path starts with any configured prefix.
func (e Exclusions) Excluded(path string) bool {
	for _, p := range e.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (e Exclusions) Prefixes() []string {
	return append([]string(nil), e.prefixes...)
}
