package normalize

import (
	"strings"
	"unicode/utf8"
)

// Sanitize drops what a TEXT column should never receive: NUL, C0 controls
// other than \n \r \t, DEL, C1 controls and invalid UTF-8 bytes.
// Clean input is returned as is without allocating
func Sanitize(s string) string {
	if utf8.ValidString(s) && strings.IndexFunc(s, unwanted) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unwanted(r) {
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, ""))
}

func unwanted(r rune) bool {
	switch {
	case r == '\n', r == '\r', r == '\t':
		return false
	case r < 0x20, r == 0x7F:
		return true
	case r >= 0x80 && r <= 0x9F:
		return true
	}
	return false
}
