//go:build !linux

package indicator

import "fmt"

// Stub implementation for non-Linux platforms.
func openGPIO(cfg Config) (driver, error) {
	return nil, fmt.Errorf("indicator: gpio unsupported on this platform")
}

var openGPIOFn = openGPIO
