package indicator

import (
	"fmt"
	"time"
)

// Config selects the GPIO lines of an RGB LED. Line names follow the kernel
// naming (e.g. "GPIO17" on a Raspberry Pi); an empty name leaves that color
// unused.
type Config struct {
	Chip      string
	RedLine   string
	GreenLine string
	BlueLine  string
	Flash     time.Duration
}

// Open claims the configured GPIO lines.
func Open(cfg Config) (*Indicator, error) {
	if cfg.RedLine == "" && cfg.GreenLine == "" && cfg.BlueLine == "" {
		return nil, fmt.Errorf("indicator: no gpio lines configured")
	}
	drv, err := openGPIOFn(cfg)
	if err != nil {
		return nil, err
	}
	return newIndicator(drv, cfg.Flash), nil
}
