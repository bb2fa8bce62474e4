package crawler

import "errors"

var (
	// ErrEarlyTermination reports a visit abandoned because the crawl was
	// cancelled. It is never recorded in the URL store.
	ErrEarlyTermination = errors.New("early termination")

	// ErrRequest reports a transport or body read failure. Error status
	// codes are not failures.
	ErrRequest = errors.New("request failed")

	// ErrRateLimiter reports a limiter that could not be constructed.
	ErrRateLimiter = errors.New("rate limiter")

	// ErrInvalidOptions reports crawl options that cannot be used.
	ErrInvalidOptions = errors.New("invalid crawl options")
)
