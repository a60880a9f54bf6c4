// Package normalize cleans free text before it is stored
package normalize

import (
	"regexp"
	"strings"
)

// tagPattern matches one angle-bracket delimited run that holds no further '<'
var tagPattern = regexp.MustCompile(`<[^<]+?>`)

// StripMarkup removes tag-like substrings from text. Removal repeats until no
// match is left, so "<<b>i>" ends as "" rather than "<i>" and a second call
// never changes the result. modified reports clean != text
func StripMarkup(text string) (clean string, modified bool) {
	clean = text
	for strings.IndexByte(clean, '<') >= 0 {
		next := tagPattern.ReplaceAllLiteralString(clean, "")
		if len(next) == len(clean) {
			break
		}
		clean = next
	}
	return clean, clean != text
}
