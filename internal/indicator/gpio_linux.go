//go:build linux

package indicator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

type outputLine interface {
	SetValue(v int) error
	Close() error
}

// gpiodLED drives up to three lines of the GPIO character device as digital
// outputs, one per color.
type gpiodLED struct {
	chips []*gpiocdev.Chip
	r     outputLine
	g     outputLine
	b     outputLine
}

func openGPIO(cfg Config) (driver, error) {
	chipCandidates := []string{}
	if cfg.Chip != "" {
		chipCandidates = append(chipCandidates, cfg.Chip)
	} else {
		// Pi 5 kernel variants can expose header GPIOs on gpiochip0 or gpiochip4.
		chipCandidates = append(chipCandidates, "/dev/gpiochip0", "/dev/gpiochip4")
		entries, _ := os.ReadDir("/dev")
		for _, e := range entries {
			name := e.Name()
			if strings.HasPrefix(name, "gpiochip") {
				chipCandidates = append(chipCandidates, filepath.Join("/dev", name))
			}
		}
	}

	led := &gpiodLED{}
	var err error
	if led.r, err = led.request(chipCandidates, cfg.RedLine); err != nil {
		_ = led.Close()
		return nil, err
	}
	if led.g, err = led.request(chipCandidates, cfg.GreenLine); err != nil {
		_ = led.Close()
		return nil, err
	}
	if led.b, err = led.request(chipCandidates, cfg.BlueLine); err != nil {
		_ = led.Close()
		return nil, err
	}
	return led, nil
}

var openGPIOFn = openGPIO

func (l *gpiodLED) request(chipCandidates []string, lineName string) (outputLine, error) {
	if lineName == "" {
		return nil, nil
	}
	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath, gpiocdev.WithConsumer("nmea-link-led"))
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
		if err != nil {
			_ = chip.Close()
			continue
		}
		l.chips = append(l.chips, chip)
		return line, nil
	}
	return nil, fmt.Errorf("indicator: gpio line %q not found (or busy)", lineName)
}

func setLine(l outputLine, on bool) error {
	if l == nil {
		return nil
	}
	v := 0
	if on {
		v = 1
	}
	return l.SetValue(v)
}

func (l *gpiodLED) SetColor(c Color) error {
	return errors.Join(setLine(l.r, c.R), setLine(l.g, c.G), setLine(l.b, c.B))
}

func (l *gpiodLED) Close() error {
	var errs []error
	for _, line := range []outputLine{l.r, l.g, l.b} {
		if line == nil {
			continue
		}
		// Leave the LED dark on shutdown.
		_ = line.SetValue(0)
		errs = append(errs, line.Close())
	}
	l.r, l.g, l.b = nil, nil, nil
	for _, c := range l.chips {
		_ = c.Close()
	}
	l.chips = nil
	return errors.Join(errs...)
}
