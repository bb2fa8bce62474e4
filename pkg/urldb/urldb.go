// Package urldb tracks the crawl status of every discovered URL.
//
// A DB is a handle around one mutex guarded map. Every task of a crawl
// shares the same *DB; the lock is held for a single map operation only and
// never across I/O. Statuses are overwritten, never removed.
package urldb

import (
	"sort"
	"sync"
)

// DB stores URLs and their status.
type DB struct {
	mu   sync.Mutex
	urls map[string]Status
}

// New creates an empty DB.
func New() *DB {
	return &DB{urls: make(map[string]Status)}
}

// Mark unconditionally sets the status of url.
func (db *DB) Mark(url string, status Status) {
	db.write(url, status, overwrite)
}

// CondMark sets the status of url only if url is not known yet.
func (db *DB) CondMark(url string, status Status) {
	db.write(url, status, ifAbsent)
}

func (db *DB) write(url string, status Status, mode markMode) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cur, known := db.urls[url]
	if next, changed := transition(cur, known, status, mode); changed {
		db.urls[url] = next
	}
}

// MarkVisited marks url as visited.
func (db *DB) MarkVisited(url string) { db.Mark(url, Visited) }

// MarkStaged marks url as staged.
func (db *DB) MarkStaged(url string) { db.Mark(url, Staged) }

// MarkUnvisited marks url as unvisited.
func (db *DB) MarkUnvisited(url string) { db.Mark(url, Unvisited) }

// MarkSkipped marks url as skipped.
func (db *DB) MarkSkipped(url string) { db.Mark(url, Skipped) }

// MarkErrored marks url as errored.
func (db *DB) MarkErrored(url string) { db.Mark(url, Errored) }

// CondMarkVisited marks url as visited if it is new.
func (db *DB) CondMarkVisited(url string) { db.CondMark(url, Visited) }

// CondMarkStaged marks url as staged if it is new.
func (db *DB) CondMarkStaged(url string) { db.CondMark(url, Staged) }

// CondMarkUnvisited marks url as unvisited if it is new.
func (db *DB) CondMarkUnvisited(url string) { db.CondMark(url, Unvisited) }

// CondMarkSkipped marks url as skipped if it is new.
func (db *DB) CondMarkSkipped(url string) { db.CondMark(url, Skipped) }

// CondMarkErrored marks url as errored if it is new.
func (db *DB) CondMarkErrored(url string) { db.CondMark(url, Errored) }

// StageUnvisited moves every unvisited URL onto the stage and returns how
// many were moved.
func (db *DB) StageUnvisited() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for url, cur := range db.urls {
		if next, changed := transition(cur, true, Staged, promote); changed {
			db.urls[url] = next
			n++
		}
	}
	return n
}

// Status returns the status of url and whether url is known.
func (db *DB) Status(url string) (Status, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	st, ok := db.urls[url]
	return st, ok
}

// URLs returns a sorted snapshot of the URLs holding status. Mutating the DB
// afterwards does not affect the returned slice.
func (db *DB) URLs(status Status) []string {
	db.mu.Lock()
	urls := make([]string, 0)
	for url, st := range db.urls {
		if st == status {
			urls = append(urls, url)
		}
	}
	db.mu.Unlock()
	sort.Strings(urls)
	return urls
}

// Count returns the number of URLs holding status.
func (db *DB) Count(status Status) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, st := range db.urls {
		if st == status {
			n++
		}
	}
	return n
}

// Counts returns the number of URLs per status. Every status is present.
func (db *DB) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		counts[st] = 0
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, st := range db.urls {
		counts[st]++
	}
	return counts
}

// Len returns the number of known URLs.
func (db *DB) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.urls)
}

// Visited returns the visited URLs.
func (db *DB) Visited() []string { return db.URLs(Visited) }

// Staged returns the staged URLs.
func (db *DB) Staged() []string { return db.URLs(Staged) }

// Unvisited returns the unvisited URLs.
func (db *DB) Unvisited() []string { return db.URLs(Unvisited) }

// Skipped returns the skipped URLs.
func (db *DB) Skipped() []string { return db.URLs(Skipped) }

// Errored returns the errored URLs.
func (db *DB) Errored() []string { return db.URLs(Errored) }

// NumVisited returns the number of visited URLs.
func (db *DB) NumVisited() int { return db.Count(Visited) }

// NumStaged returns the number of staged URLs.
func (db *DB) NumStaged() int { return db.Count(Staged) }

// NumUnvisited returns the number of unvisited URLs.
func (db *DB) NumUnvisited() int { return db.Count(Unvisited) }

// NumSkipped returns the number of skipped URLs.
func (db *DB) NumSkipped() int { return db.Count(Skipped) }

// NumErrored returns the number of errored URLs.
func (db *DB) NumErrored() int { return db.Count(Errored) }
