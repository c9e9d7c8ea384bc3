package pagesnap

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFilenamePart bounds each sanitized part of a generated file name.
const maxFilenamePart = 80

// BuildFilename joins parts into a safe PDF file name such as
// "Publication_Certificate_Ada_Lovelace_2026-10-19.pdf".
// Whitespace becomes '_', characters outside letters, digits, '-', '_'
// and '.' are dropped, and empty parts are skipped. Returns
// DefaultFilename when nothing usable remains.
func BuildFilename(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := sanitizeFilenamePart(p); s != "" {
			clean = append(clean, s)
		}
	}
	if len(clean) == 0 {
		return DefaultFilename
	}
	return strings.Join(clean, "_") + ".pdf"
}

func sanitizeFilenamePart(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.':
			b.WriteRune(r)
			underscore = false
		case unicode.IsSpace(r) || r == '_':
			if !underscore && b.Len() > 0 {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_.")
	if len(out) > maxFilenamePart {
		out = strings.TrimRight(truncateRunes(out, maxFilenamePart), "_.")
	}
	return out
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
