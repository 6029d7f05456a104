package gallery

import (
	"strings"
	"unicode"
)

// SameName reports whether two user-supplied names (usernames, album names,
// tag types, tag values) refer to the same thing. Surrounding whitespace is
// ignored and letters compare under Unicode case folding.
func SameName(a, b string) bool {
	return FoldKey(a) == FoldKey(b)
}

// FoldKey is the map key form of a name: trimmed, with every rune replaced
// by one fixed member of its case-folding orbit. FoldKey(a) == FoldKey(b)
// exactly when SameName(a, b).
func FoldKey(s string) string {
	return strings.Map(foldRune, strings.TrimSpace(s))
}

// foldRune picks the lower case form of the orbit's smallest rune when that
// form belongs to the orbit, and the smallest rune otherwise. The choice
// depends only on the orbit, so all its members map to the same rune.
func foldRune(r rune) rune {
	if r < 0x80 {
		if 'A' <= r && r <= 'Z' {
			r += 'a' - 'A'
		}
		if r != 'k' && r != 's' {
			return r
		}
	}
	lo := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < lo {
			lo = f
		}
	}
	lower := unicode.ToLower(unicode.ToUpper(lo))
	if lower == lo {
		return lo
	}
	for f := unicode.SimpleFold(lo); f != lo; f = unicode.SimpleFold(f) {
		if f == lower {
			return lower
		}
	}
	return lo
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
