package contents

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases s, strips accents, keeps letters, digits and hyphens, and
// collapses every other run of characters into a single hyphen.
func Slugify(s string) string {
	var b strings.Builder

	pendingHyphen := false

	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}

			pendingHyphen = false

			b.WriteRune(unicode.ToLower(r))
		case r == '_' || r == '-' || unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			pendingHyphen = true
		}
	}

	return b.String()
}

func suffixedSlug(base string, n int) string {
	if n <= 1 {
		return base
	}

	return base + "-" + strconv.Itoa(n)
}
