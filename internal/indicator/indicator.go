package indicator

import (
	"sync/atomic"
	"time"
)

// Event is a transient status signal.
type Event int

const (
	EventBoot Event = iota
	EventRxValid
	EventRxInvalid
	EventTx
	numEvents
)

func (e Event) String() string {
	switch e {
	case EventBoot:
		return "boot"
	case EventRxValid:
		return "rx_valid"
	case EventRxInvalid:
		return "rx_invalid"
	case EventTx:
		return "tx"
	default:
		return "unknown"
	}
}

// Color is an on/off RGB triple.
type Color struct {
	R, G, B bool
}

var (
	Off    = Color{}
	Cyan   = Color{G: true, B: true}
	Green  = Color{G: true}
	Red    = Color{R: true}
	Blue   = Color{B: true}
	colors = [numEvents]Color{
		EventBoot:      Cyan,
		EventRxValid:   Green,
		EventRxInvalid: Red,
		EventTx:        Blue,
	}
)

// ColorFor returns the color shown for e.
func ColorFor(e Event) Color {
	if e < 0 || e >= numEvents {
		return Off
	}
	return colors[e]
}

type driver interface {
	SetColor(c Color) error
	Close() error
}

const DefaultFlash = 50 * time.Millisecond

// Indicator lights the LED for a short time per event and turns it off again
// from Update. Flash and Update are meant to be called from one goroutine (the
// polling loop); Counts may be read from anywhere.
type Indicator struct {
	drv   driver
	flash time.Duration

	on      bool
	onSince time.Duration

	counts  [numEvents]atomic.Uint64
	lastErr atomic.Value // string
}

func newIndicator(drv driver, flash time.Duration) *Indicator {
	if flash <= 0 {
		flash = DefaultFlash
	}
	ind := &Indicator{drv: drv, flash: flash}
	ind.lastErr.Store("")
	return ind
}

// Nop returns an Indicator without hardware that still counts events.
func Nop() *Indicator {
	return newIndicator(nil, 0)
}

// Flash shows the color of e starting at now (time since start).
func (i *Indicator) Flash(e Event, now time.Duration) {
	if i == nil {
		return
	}
	if e >= 0 && e < numEvents {
		i.counts[e].Add(1)
	}
	i.set(ColorFor(e))
	i.on = true
	i.onSince = now
}

// Update turns the LED off once the flash duration has elapsed.
func (i *Indicator) Update(now time.Duration) {
	if i == nil || !i.on {
		return
	}
	if now-i.onSince >= i.flash {
		i.set(Off)
		i.on = false
	}
}

func (i *Indicator) set(c Color) {
	if i.drv == nil {
		return
	}
	if err := i.drv.SetColor(c); err != nil {
		i.lastErr.Store(err.Error())
	}
}

// lit reports whether a flash is in progress.
func (i *Indicator) lit() bool {
	return i != nil && i.on
}

func (i *Indicator) Counts() map[string]uint64 {
	out := make(map[string]uint64, numEvents)
	if i == nil {
		return out
	}
	for e := Event(0); e < numEvents; e++ {
		out[e.String()] = i.counts[e].Load()
	}
	return out
}

func (i *Indicator) LastError() string {
	if i == nil {
		return ""
	}
	return i.lastErr.Load().(string)
}

func (i *Indicator) Close() error {
	if i == nil || i.drv == nil {
		return nil
	}
	return i.drv.Close()
}
