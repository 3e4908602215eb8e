//go:build linux

package serialport

import (
	"errors"
	"testing"
	"time"
)

func TestDeciseconds(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want uint8
	}{
		{0, 1},
		{time.Millisecond, 1},
		{100 * time.Millisecond, 1},
		{150 * time.Millisecond, 2},
		{time.Second, 10},
		{time.Hour, 255},
	}
	for _, tc := range cases {
		if got := deciseconds(tc.in); got != tc.want {
			t.Fatalf("deciseconds(%s)=%d want %d", tc.in, got, tc.want)
		}
	}
}

func TestBaudToUnix_RejectsOutsideCatalog(t *testing.T) {
	for _, b := range SupportedBauds {
		if _, err := baudToUnix(b); err != nil {
			t.Fatalf("baudToUnix(%d) error: %v", b, err)
		}
	}
	if _, err := baudToUnix(57600); !errors.Is(err, ErrUnsupportedBaud) {
		t.Fatalf("err=%v want ErrUnsupportedBaud", err)
	}
}
