package strings

import "strings"

// EqualFoldIn reports whether s matches any element of set, ignoring case.
func EqualFoldIn(s string, set []string) bool {
	for _, e := range set {
		if strings.EqualFold(s, e) {
			return true
		}
	}
	return false
}
