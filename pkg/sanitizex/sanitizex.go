package sanitizex

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanSingleLine normalizes s to NFC, turns control characters into spaces
// and collapses runs of ASCII spaces. Other Unicode spacing, such as the
// no-break space inside a name, is kept. Used for identifiers taken from
// paths and headers.
func CleanSingleLine(s string) string {
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, norm.NFC.String(s))

	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' })
	return strings.TrimSpace(strings.Join(fields, " "))
}

// CleanMultiline normalizes s to NFC, unifies line endings and drops control
// characters other than tabs. Each line is trimmed, and blank lines at the
// start and end are removed, so a reason made only of whitespace comes out
// empty.
func CleanMultiline(s string) string {
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(norm.NFC.String(s))
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, s)

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
