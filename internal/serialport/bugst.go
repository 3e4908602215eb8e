package serialport

import (
	"fmt"

	"go.bug.st/serial"
)

type bugstPort struct {
	serial.Port
}

func openBugst(cfg Config) (Port, error) {
	p, err := serial.Open(cfg.Device, &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &bugstPort{Port: p}, nil
}

func (p *bugstPort) ResetInput() error {
	return p.Port.ResetInputBuffer()
}

func (p *bugstPort) Flush() error {
	return p.Port.Drain()
}
