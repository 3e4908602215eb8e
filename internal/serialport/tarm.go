package serialport

import (
	"fmt"

	"github.com/tarm/serial"
)

// tarmPort wraps github.com/tarm/serial. The library rounds read timeouts up
// to whole deciseconds on POSIX systems.
type tarmPort struct {
	port *serial.Port
}

func openTarm(cfg Config) (Port, error) {
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return &tarmPort{port: p}, nil
}

func (p *tarmPort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *tarmPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *tarmPort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// ResetInput uses the library's Flush, which discards both directions.
func (p *tarmPort) ResetInput() error {
	return p.port.Flush()
}

// Flush is a no-op: tarm writes go straight to the file descriptor.
func (p *tarmPort) Flush() error {
	return nil
}
