package serialport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrNotOpen is returned while the device could not be (re)opened.
var ErrNotOpen = errors.New("serial port not open")

// OpenFunc opens a port; tests substitute fakes.
type OpenFunc func(cfg Config) (Port, error)

const (
	reopenDelay   = 5 * time.Millisecond
	maxDrainReads = 64
)

// Peripheral owns the single serial port and its lock. Every access (drain,
// write+flush, teardown/reopen on baud change) happens under mu, so two
// contexts never touch the device mid-transaction.
type Peripheral struct {
	mu      sync.Mutex
	cfg     Config
	open    OpenFunc
	port    Port
	gen     uint64
	lastErr string
	sleep   func(time.Duration)
}

func NewPeripheral(cfg Config, open OpenFunc) *Peripheral {
	if open == nil {
		open = Open
	}
	return &Peripheral{cfg: cfg, open: open, sleep: time.Sleep}
}

// Start opens the device at the configured baud.
func (p *Peripheral) Start() error {
	if p == nil {
		return fmt.Errorf("serial peripheral is nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reopenLocked(p.cfg.Baud)
}

// SetBaud tears the device down and re-establishes it at baud. Bytes in
// flight are discarded and the generation returned by ReadAvailable changes
// so readers can drop any partial line. Values outside SupportedBauds are
// rejected without touching the port. If the reopen fails the port stays
// closed and Baud keeps the last rate that opened.
func (p *Peripheral) SetBaud(baud int) error {
	if err := CheckBaud(baud); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reopenLocked(baud)
}

func (p *Peripheral) reopenLocked(baud int) error {
	if p.port != nil {
		_ = p.port.Close()
		p.port = nil
		p.sleep(reopenDelay)
	}
	p.gen++

	// Baud only reports rates the device is actually open at.
	cfg := p.cfg
	cfg.Baud = baud
	port, err := p.open(cfg)
	if err != nil {
		p.lastErr = fmt.Sprintf("serial open failed device=%s baud=%d: %v", cfg.Device, baud, err)
		return fmt.Errorf("serial open device=%s baud=%d: %w", cfg.Device, baud, err)
	}
	p.cfg = cfg
	if err := port.ResetInput(); err != nil {
		p.lastErr = fmt.Sprintf("serial reset input failed: %v", err)
	} else {
		p.lastErr = ""
	}
	p.port = port
	return nil
}

// ReadAvailable appends the bytes currently available to dst. It stops as
// soon as a read comes back short, so it returns after at most one read
// timeout when the bus is idle. gen identifies the port instance the bytes
// came from.
func (p *Peripheral) ReadAvailable(dst []byte) (out []byte, gen uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	gen = p.gen
	if p.port == nil {
		return dst, gen, ErrNotOpen
	}
	var buf [256]byte
	for i := 0; i < maxDrainReads; i++ {
		n, rerr := p.port.Read(buf[:])
		dst = append(dst, buf[:n]...)
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return dst, gen, nil
			}
			p.lastErr = fmt.Sprintf("serial read failed: %v", rerr)
			return dst, gen, rerr
		}
		if n < len(buf) {
			break
		}
	}
	return dst, gen, nil
}

// WriteLine writes line followed by CRLF and waits for it to leave the driver.
func (p *Peripheral) WriteLine(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port == nil {
		return ErrNotOpen
	}
	if _, err := io.WriteString(p.port, line+"\r\n"); err != nil {
		p.lastErr = fmt.Sprintf("serial write failed: %v", err)
		return err
	}
	if err := p.port.Flush(); err != nil {
		p.lastErr = fmt.Sprintf("serial flush failed: %v", err)
		return err
	}
	return nil
}

func (p *Peripheral) Baud() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.Baud
}

func (p *Peripheral) Device() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.Device
}

// generation changes every time the port is torn down and reopened.
func (p *Peripheral) generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

func (p *Peripheral) LastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Peripheral) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}
