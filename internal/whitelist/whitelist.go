// Package whitelist flags extracted records against a configured set of
// trusted seller/manufacturer names.
package whitelist

import (
	"strings"
)

// IsWhitelisted reports whether the seller or the manufacturer matches any
// entry of the trusted set. Matching is case-insensitive and accepts exact
// matches or substring containment in either direction; a match on either
// name is sufficient. Pure function: the flag is recomputed at write time
// and never cached across sessions.
func IsWhitelisted(seller, manufacturer string, trusted []string) bool {
	if len(trusted) == 0 {
		return false
	}

	for _, name := range []string{seller, manufacturer} {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		for _, w := range trusted {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			if name == w || strings.Contains(name, w) || strings.Contains(w, name) {
				return true
			}
		}
	}

	return false
}
