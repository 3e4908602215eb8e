package serialport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Port is an open serial device.
//
// Reads must not block indefinitely: backends are opened with a read timeout
// and return (0, nil) or (0, io.EOF) when nothing arrived in time.
type Port interface {
	io.ReadWriteCloser

	// ResetInput discards bytes received but not yet read.
	ResetInput() error
	// Flush blocks until written bytes have left the driver.
	Flush() error
}

const (
	BackendBugst   = "bugst"
	BackendTarm    = "tarm"
	BackendTermios = "termios"
)

// SupportedBauds is the baud catalog offered to clients.
var SupportedBauds = []int{4800, 9600, 38400, 115200}

var ErrUnsupportedBaud = errors.New("unsupported baud")

type Config struct {
	Device string
	Baud   int
	// Backend selects the driver: bugst (default), tarm or termios (linux only).
	Backend     string
	ReadTimeout time.Duration
}

// CheckBaud returns ErrUnsupportedBaud (wrapped) unless baud is in the catalog.
func CheckBaud(baud int) error {
	for _, b := range SupportedBauds {
		if b == baud {
			return nil
		}
	}
	return fmt.Errorf("%w %d", ErrUnsupportedBaud, baud)
}

// Open opens cfg.Device with the configured backend.
func Open(cfg Config) (Port, error) {
	if strings.TrimSpace(cfg.Device) == "" {
		return nil, fmt.Errorf("serial device is required")
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Millisecond
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendBugst:
		return openBugst(cfg)
	case BackendTarm:
		return openTarm(cfg)
	case BackendTermios:
		return openTermios(cfg.Device, cfg.Baud, cfg.ReadTimeout)
	default:
		return nil, fmt.Errorf("unknown serial backend %q", cfg.Backend)
	}
}
