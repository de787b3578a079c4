package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slug turns a display name into a file-name part: NFKD-decomposed, only
// letters, digits, '_' and '-' kept, whitespace runs become one '_', at most
// 40 runes. Blank results become "toy".
func Slug(name string) string {
	return clean(name, 40, false)
}

// SafeFilePart is Slug with dots allowed and an 80 rune limit, used for
// names derived from uploaded file names.
func SafeFilePart(name string) string {
	return clean(name, 80, true)
}

func clean(s string, limit int, keepDots bool) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "toy"
	}
	var b strings.Builder
	n := 0
	lastUnderscore := false
	for _, r := range norm.NFKD.String(s) {
		if n >= limit {
			break
		}
		var out rune
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			out = r
		case r == '_' || unicode.IsSpace(r):
			out = '_'
		case r == '.' && keepDots:
			out = r
		default:
			continue
		}
		if out == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(out)
		n++
	}
	if b.Len() == 0 {
		return "toy"
	}
	return b.String()
}
