package extractor

import (
	"sort"
	"sync"
)

// WordDB is the deduplicated word list shared by every extraction.
type WordDB struct {
	mu    sync.Mutex
	words map[string]struct{}
}

// NewWordDB creates an empty word list.
func NewWordDB() *WordDB {
	return &WordDB{words: make(map[string]struct{})}
}

// Insert adds word and reports whether it was new. Empty words are ignored.
func (db *WordDB) Insert(word string) bool {
	if word == "" {
		return false
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.words[word]; ok {
		return false
	}
	db.words[word] = struct{}{}
	return true
}

// Contains reports whether word is stored.
func (db *WordDB) Contains(word string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.words[word]
	return ok
}

// Len returns the number of stored words.
func (db *WordDB) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.words)
}

// Words returns the stored words in sorted order.
func (db *WordDB) Words() []string {
	db.mu.Lock()
	words := make([]string, 0, len(db.words))
	for w := range db.words {
		words = append(words, w)
	}
	db.mu.Unlock()
	sort.Strings(words)
	return words
}
