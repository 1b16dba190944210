package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// forbiddenReplacer drops characters that break shells, URLs, or the web
// player, and turns path separators into a double underscore.
var forbiddenReplacer = strings.NewReplacer(
	"}", "",
	"{", "",
	"%", "",
	">", "",
	"<", "",
	"^", "",
	";", "",
	"`", "",
	"$", "",
	"\"", "",
	"@", "",
	"=", "",
	"/", "__",
)

// CleanString normalizes to NFC and strips forbidden characters. Slashes become "__".
func CleanString(value string) string {
	return forbiddenReplacer.Replace(norm.NFC.String(value))
}

// FileSafe returns a single path segment derived from value: CleanString plus
// whitespace and dots replaced by underscores. Leading and trailing whitespace
// is trimmed first so titles do not start or end with an underscore.
func FileSafe(value string) string {
	cleaned := CleanString(strings.TrimSpace(value))
	return strings.Map(func(r rune) rune {
		if r == '.' || unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, cleaned)
}
