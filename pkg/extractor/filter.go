package extractor

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// FilterMode transforms or rejects a single word. A rejected word becomes
// the empty string.
type FilterMode uint8

const (
	// FilterNone leaves the word as is.
	FilterNone FilterMode = iota
	// FilterDeunicode strips diacritics and compatibility forms.
	FilterDeunicode
	// FilterDecancer folds width, compatibility and case variants.
	FilterDecancer
	// FilterAllNumbers rejects words made only of numbers.
	FilterAllNumbers
	// FilterAnyNumbers rejects words containing a number.
	FilterAnyNumbers
	// FilterNoNumbers rejects words without a number.
	FilterNoNumbers
	// FilterOnlyNumbers keeps only words made of numbers.
	FilterOnlyNumbers
	// FilterAllASCII rejects words made only of ascii characters.
	FilterAllASCII
	// FilterAnyASCII rejects words containing an ascii character.
	FilterAnyASCII
	// FilterNoASCII rejects words without an ascii character.
	FilterNoASCII
	// FilterOnlyASCII keeps only words made of ascii characters.
	FilterOnlyASCII
)

var filterNames = []string{
	FilterNone:        "none",
	FilterDeunicode:   "deunicode",
	FilterDecancer:    "decancer",
	FilterAllNumbers:  "all-numbers",
	FilterAnyNumbers:  "any-numbers",
	FilterNoNumbers:   "no-numbers",
	FilterOnlyNumbers: "only-numbers",
	FilterAllASCII:    "all-ascii",
	FilterAnyASCII:    "any-ascii",
	FilterNoASCII:     "no-ascii",
	FilterOnlyASCII:   "only-ascii",
}

// FilterNames lists every filter name.
func FilterNames() []string {
	return append([]string(nil), filterNames...)
}

func (f FilterMode) String() string {
	if int(f) < len(filterNames) {
		return filterNames[f]
	}
	return fmt.Sprintf("filter(%d)", uint8(f))
}

// ParseFilterMode parses a filter name.
func ParseFilterMode(s string) (FilterMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range filterNames {
		if n == name {
			return FilterMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown filter %q", s)
}

// ParseFilterModes parses a list of filter names.
func ParseFilterModes(names []string) ([]FilterMode, error) {
	modes := make([]FilterMode, 0, len(names))
	for _, name := range names {
		m, err := ParseFilterMode(name)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return modes, nil
}

// MarshalText implements encoding.TextMarshaler.
func (f FilterMode) MarshalText() ([]byte, error) {
	if int(f) >= len(filterNames) {
		return nil, fmt.Errorf("unknown filter %d", uint8(f))
	}
	return []byte(filterNames[f]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FilterMode) UnmarshalText(text []byte) error {
	m, err := ParseFilterMode(string(text))
	if err != nil {
		return err
	}
	*f = m
	return nil
}

// Apply returns word filtered by f.
func (f FilterMode) Apply(word string) string {
	switch f {
	case FilterDeunicode:
		return deunicode(word)
	case FilterDecancer:
		return decancer(word)
	case FilterAllNumbers:
		return rejectIf(word, allRunes(word, isNumeric))
	case FilterAnyNumbers:
		return rejectIf(word, anyRunes(word, isNumeric))
	case FilterNoNumbers:
		return rejectIf(word, !anyRunes(word, isNumeric))
	case FilterOnlyNumbers:
		return rejectIf(word, !allRunes(word, isNumeric))
	case FilterAllASCII:
		return rejectIf(word, allRunes(word, isASCII))
	case FilterAnyASCII:
		return rejectIf(word, anyRunes(word, isASCII))
	case FilterNoASCII:
		return rejectIf(word, !anyRunes(word, isASCII))
	case FilterOnlyASCII:
		return rejectIf(word, !allRunes(word, isASCII))
	default:
		return word
	}
}

// ApplyAll runs word through filters in order and stops at the first
// rejection.
func ApplyAll(word string, filters []FilterMode) string {
	for _, f := range filters {
		word = f.Apply(word)
		if word == "" {
			return ""
		}
	}
	return word
}

func deunicode(word string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, word)
	if err != nil {
		return ""
	}
	return out
}

func decancer(word string) string {
	t := transform.Chain(width.Fold, norm.NFKC, cases.Fold())
	out, _, err := transform.String(t, word)
	if err != nil {
		return ""
	}
	return out
}

func isNumeric(r rune) bool { return unicode.IsNumber(r) }

func isASCII(r rune) bool { return r <= unicode.MaxASCII }

func allRunes(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func anyRunes(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if pred(r) {
			return true
		}
	}
	return false
}

func rejectIf(word string, reject bool) string {
	if reject {
		return ""
	}
	return word
}
