package config

import "errors"

// Configuration validation errors, returned wrapped by Config.Validate.
var (
	// ErrBlankString is returned for a required string that is empty or
	// padded with whitespace.
	ErrBlankString = errors.New("blank or padded string")

	// ErrHeaderFormat is returned when the user agent is not a valid HTTP
	// header value.
	ErrHeaderFormat = errors.New("invalid http header value")

	// ErrInvalidConfig is returned for any other out of range or unknown value.
	ErrInvalidConfig = errors.New("invalid configuration")
)
