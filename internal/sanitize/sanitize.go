// Package sanitize turns free-form catalog names into strings that are safe
// to use as path segments on common filesystems.
package sanitize

import "strings"

var replacements = map[rune]rune{
	'/':  '_',
	'\\': '_',
	':':  '-',
	'*':  '_',
	'?':  '_',
	'"':  '\'',
	'<':  '(',
	'>':  ')',
	'|':  '_',
}

// Filename maps filesystem-hostile characters to harmless lookalikes and
// trims whitespace and trailing dots. The result may be empty; callers are
// expected to substitute their own placeholder in that case.
func Filename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 {
			continue
		}
		if repl, ok := replacements[r]; ok {
			b.WriteRune(repl)
			continue
		}
		b.WriteRune(r)
	}
	return strings.Trim(strings.TrimSpace(b.String()), ".")
}
