package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Words splits text into words. A word is a run of letters, marks, digits
// and connector punctuation. An apostrophe or period joins two letters
// ("don't", "e.g") and a period or comma joins two digits ("3.14").
func Words(text string) []string {
	var words []string
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && joins(text, i, r) {
			continue
		}
		if start >= 0 {
			words = append(words, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) ||
		unicode.IsMark(r) || unicode.Is(unicode.Pc, r)
}

// joins reports whether the separator r at byte offset i sits between two
// runes it may join.
func joins(text string, i int, r rune) bool {
	switch r {
	case '\'', '’', '.', ',':
	default:
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:i])
	next, _ := utf8.DecodeRuneInString(text[i+utf8.RuneLen(r):])
	if unicode.IsDigit(prev) && unicode.IsDigit(next) {
		return r == '.' || r == ','
	}
	return r != ',' && unicode.IsLetter(prev) && unicode.IsLetter(next)
}

// TruncateText truncates text to maxLength bytes at a word boundary.
func TruncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}

	truncated := text[:maxLength]
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}
