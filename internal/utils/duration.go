package utils

import (
	"errors"
	"strconv"
	"time"
)

// ErrBadDuration rejects input that does not match <integer>[m|h|d].
var ErrBadDuration = errors.New("invalid duration: use m, h, or d (e.g. 10m, 2h, 3d)")

// ParseDuration parses the moderation duration grammar <integer>[m|h|d],
// e.g. "10m", "2h", "3d". The integer must be positive.
func ParseDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, ErrBadDuration
	}

	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || value <= 0 {
		return 0, ErrBadDuration
	}

	switch s[len(s)-1] {
	case 'm':
		return time.Duration(value) * time.Minute, nil
	case 'h':
		return time.Duration(value) * time.Hour, nil
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, ErrBadDuration
	}
}
