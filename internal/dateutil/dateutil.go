// Package dateutil resolves the issue date printed on certificates.
//
// A certificate date is either literal text, printed as written, or
// "auto" for the day of rendering. "auto:LAYOUT" picks the layout, with
// month names in the certificate's language.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an unusable "auto:" layout.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxLayoutLength limits layout strings.
const MaxLayoutLength = 50

// DefaultLayout is the layout of a bare "auto".
const DefaultLayout = "YYYY-MM-DD"

// autoPrefix introduces a generated date.
const autoPrefix = "auto"

// tokens are matched longest first.
var tokens = []string{"YYYY", "MMMM", "MMM", "YY", "MM", "DD", "M", "D"}

type locale struct {
	months [12]string
	short  [12]string
	long   string // Layout of the "long" preset
}

var locales = map[string]locale{
	"en": {
		months: [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		short:  [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		long:   "MMMM D, YYYY",
	},
	"fr": {
		months: [12]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
		short:  [12]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
		long:   "D MMMM YYYY",
	},
	"es": {
		months: [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		short:  [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
		long:   "D [de] MMMM [de] YYYY",
	},
	"de": {
		months: [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
		short:  [12]string{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
		long:   "D. MMMM YYYY",
	},
}

// presets name common layouts. "long" is taken from the locale.
var presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
}

// localeFor returns the locale for a language tag such as "fr" or
// "fr-CA", falling back to English.
func localeFor(lang string) locale {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(lang)), "-")
	if l, ok := locales[base]; ok {
		return l
	}
	return locales["en"]
}

// Resolve returns the date to print for value:
//   - "" or "auto": now in DefaultLayout
//   - "auto:LAYOUT" or "auto:PRESET" (iso, european, us, long)
//   - anything else unchanged, e.g. "1843-09-01" or "automne 1843"
func Resolve(value, lang string, now time.Time) (string, error) {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)

	switch {
	case trimmed == "" || lower == autoPrefix:
		return Format(now, DefaultLayout, lang)
	case strings.HasPrefix(lower, autoPrefix+":"):
		layout := trimmed[len(autoPrefix)+1:]
		if layout == "" {
			return "", fmt.Errorf("%w: layout missing after %q", ErrInvalidDateFormat, autoPrefix+":")
		}
		switch name := strings.ToLower(layout); {
		case name == "long":
			layout = localeFor(lang).long
		case presets[name] != "":
			layout = presets[name]
		}
		return Format(now, layout, lang)
	}
	return value, nil
}

// Format writes t using layout tokens YYYY, YY, MMMM, MMM, MM, M, DD and
// D. Text in brackets is copied literally; other characters pass through.
func Format(t time.Time, layout, lang string) (string, error) {
	if layout == "" {
		return "", fmt.Errorf("%w: layout cannot be empty", ErrInvalidDateFormat)
	}
	if len(layout) > MaxLayoutLength {
		return "", fmt.Errorf("%w: layout exceeds %d characters", ErrInvalidDateFormat, MaxLayoutLength)
	}

	loc := localeFor(lang)
	month := int(t.Month())
	var b strings.Builder

	for rest := layout; rest != ""; {
		if rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed bracket in %q", ErrInvalidDateFormat, layout)
			}
			b.WriteString(rest[1:end])
			rest = rest[end+1:]
			continue
		}

		tok := leadingToken(rest)
		switch tok {
		case "YYYY":
			b.WriteString(pad(t.Year(), 4))
		case "YY":
			b.WriteString(pad(t.Year()%100, 2))
		case "MMMM":
			b.WriteString(loc.months[month-1])
		case "MMM":
			b.WriteString(loc.short[month-1])
		case "MM":
			b.WriteString(pad(month, 2))
		case "M":
			b.WriteString(strconv.Itoa(month))
		case "DD":
			b.WriteString(pad(t.Day(), 2))
		case "D":
			b.WriteString(strconv.Itoa(t.Day()))
		default:
			b.WriteByte(rest[0])
			rest = rest[1:]
			continue
		}
		rest = rest[len(tok):]
	}
	return b.String(), nil
}

func leadingToken(s string) string {
	for _, tok := range tokens {
		if strings.HasPrefix(s, tok) {
			return tok
		}
	}
	return ""
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
