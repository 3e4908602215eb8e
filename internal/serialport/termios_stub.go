//go:build !linux

package serialport

import (
	"fmt"
	"time"
)

func openTermios(path string, baud int, readTimeout time.Duration) (Port, error) {
	return nil, fmt.Errorf("termios serial backend not supported on this platform")
}
