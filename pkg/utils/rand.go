package utils

import (
	"math/rand/v2"
	"time"
)

// NumBetween returns a random number in [lower, upper). The bounds may be
// given in either order; equal bounds return lower.
func NumBetween(lower, upper int) int {
	if upper < lower {
		lower, upper = upper, lower
	}
	if upper == lower {
		return lower
	}
	return lower + rand.IntN(upper-lower)
}

// Jitter returns a random duration between lower and upper milliseconds.
func Jitter(lower, upper int) time.Duration {
	return time.Duration(NumBetween(lower, upper)) * time.Millisecond
}
