package urldb

import "fmt"

// Status is the crawl state of a single URL.
type Status uint8

const (
	// Unvisited is a newly discovered URL that has not been processed yet.
	Unvisited Status = iota
	// Staged is an unvisited URL selected for the current depth round.
	Staged
	// Visited is a URL that was fetched or read successfully.
	Visited
	// Skipped is a URL that will not be visited, e.g. a site policy violation.
	Skipped
	// Errored is a URL that failed while being visited.
	Errored
)

// Statuses lists every status in reporting order.
var Statuses = []Status{Visited, Staged, Unvisited, Skipped, Errored}

func (s Status) String() string {
	switch s {
	case Unvisited:
		return "unvisited"
	case Staged:
		return "staged"
	case Visited:
		return "visited"
	case Skipped:
		return "skipped"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	switch s {
	case Unvisited, Staged, Visited, Skipped, Errored:
		return true
	default:
		return false
	}
}

// ParseStatus returns the status named by s.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown url status %q", s)
}

// markMode selects how a write treats an already known URL.
type markMode uint8

const (
	// overwrite always replaces the current status.
	overwrite markMode = iota
	// ifAbsent only inserts when the URL is unknown.
	ifAbsent
	// promote only replaces a matching status; used for staging.
	promote
)

// transition returns the status a URL holds after a write of next, and
// whether the write changed the stored value. known reports whether the URL
// already had a status (cur). Writes of an unknown status are dropped.
func transition(cur Status, known bool, next Status, mode markMode) (Status, bool) {
	if !next.Valid() {
		return cur, false
	}
	switch mode {
	case overwrite:
		return next, !known || cur != next
	case ifAbsent:
		if known {
			return cur, false
		}
		return next, true
	case promote:
		if known && cur == Unvisited {
			return next, cur != next
		}
		return cur, false
	default:
		panic(fmt.Sprintf("urldb: unknown mark mode %d", mode))
	}
}
