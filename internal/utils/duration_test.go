package utils

import (
	"errors"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"10m", 10 * time.Minute},
		{"1m", time.Minute},
		{"2h", 2 * time.Hour},
		{"3d", 72 * time.Hour},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestParseDurationRejects(t *testing.T) {
	for _, in := range []string{"", "m", "10", "10s", "-5m", "0h", "h2", "2.5h"} {
		if _, err := ParseDuration(in); !errors.Is(err, ErrBadDuration) {
			t.Fatalf("%q: expected ErrBadDuration, got %v", in, err)
		}
	}
}
