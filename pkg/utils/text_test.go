package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", " \t\n ", nil},
		{"simple", "The quick brown fox", []string{"The", "quick", "brown", "fox"}},
		{"punctuation", "Hello, world! (again?)", []string{"Hello", "world", "again"}},
		{"apostrophe", "don't stop", []string{"don't", "stop"}},
		{"curly apostrophe", "it’s here", []string{"it’s", "here"}},
		{"trailing apostrophe", "dogs' bones", []string{"dogs", "bones"}},
		{"decimal", "pi is 3.14, e is 2,71", []string{"pi", "is", "3.14", "e", "is", "2,71"}},
		{"sentence end", "the end.", []string{"the", "end"}},
		{"abbreviation", "e.g this", []string{"e.g", "this"}},
		{"hyphen splits", "half-elven", []string{"half", "elven"}},
		{"underscore joins", "snake_case word", []string{"snake_case", "word"}},
		{"unicode", "Frodo Bolsón 東京", []string{"Frodo", "Bolsón", "東京"}},
		{"combining mark", "café ok", []string{"café", "ok"}},
		{"digits and letters", "r2d2 c-3po", []string{"r2d2", "c", "3po"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Words(tt.text))
		})
	}
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "hello...", TruncateText("hello wonderful world", 12))
	assert.Equal(t, "abcde...", TruncateText("abcdefgh", 5))
}

func TestNumBetween(t *testing.T) {
	for i := 0; i < 200; i++ {
		n := NumBetween(20, 120)
		assert.GreaterOrEqual(t, n, 20)
		assert.Less(t, n, 120)

		n = NumBetween(120, 20)
		assert.GreaterOrEqual(t, n, 20)
		assert.Less(t, n, 120)
	}
	assert.Equal(t, 7, NumBetween(7, 7))
}

func TestJitter(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := Jitter(20, 120)
		assert.GreaterOrEqual(t, d.Milliseconds(), int64(20))
		assert.Less(t, d.Milliseconds(), int64(120))
	}
}
