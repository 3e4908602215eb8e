package gateway

import (
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"nmea-link/internal/nmea"
)

const (
	NumSlots        = 4
	MinInterval     = 50 * time.Millisecond
	DefaultInterval = 500 * time.Millisecond
)

var ErrBadSlot = errors.New("bad slot")

// SlotConfig is the boot-time configuration of one slot.
type SlotConfig struct {
	Enabled  bool
	Sensor   nmea.Category
	Code     string
	Text     string
	Interval time.Duration
}

// DefaultSlots mirrors the factory configuration: only slot 0 (GPS RMC) is
// enabled and every slot fires every 500ms.
func DefaultSlots() [NumSlots]SlotConfig {
	return [NumSlots]SlotConfig{
		{Enabled: true, Sensor: nmea.GPS, Code: "RMC", Interval: DefaultInterval},
		{Enabled: false, Sensor: nmea.GPS, Code: "VTG", Interval: DefaultInterval},
		{Enabled: false, Sensor: nmea.Speed, Code: "VHW", Interval: DefaultInterval},
		{Enabled: false, Sensor: nmea.Heading, Code: "HDT", Interval: DefaultInterval},
	}
}

// Slot is a read-only view of one generation slot.
type Slot struct {
	Index       int           `json:"index"`
	Enabled     bool          `json:"enabled"`
	Sensor      nmea.Category `json:"sensor"`
	Code        string        `json:"sentence"`
	Text        string        `json:"text"`
	IntervalMs  int64         `json:"interval_ms"`
	LastFiredMs int64         `json:"last_fired_ms"`
}

type slot struct {
	enabled  bool
	sensor   nmea.Category
	code     string
	text     string
	interval time.Duration
	// lastFiredMs is written only by the polling loop.
	lastFiredMs int64
}

func (s *slot) output() string {
	if s.text != "" {
		return s.text
	}
	return nmea.TemplateFor(s.sensor, s.code)
}

func (s *slot) setSensor(c nmea.Category) {
	s.sensor = c
	if c == nmea.Other {
		s.code = nmea.CustomCode
	}
}

// IntervalFromMillis converts a client-supplied period. Values too large for
// a Duration saturate instead of wrapping, so a huge request stays huge.
func IntervalFromMillis(ms int64) time.Duration {
	const limit = math.MaxInt64 / int64(time.Millisecond)
	switch {
	case ms > limit:
		return time.Duration(math.MaxInt64)
	case ms < -limit:
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func clampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	return d
}

// slotTable guards the whole slot pool with one lock so that every logical
// change (e.g. category plus the code it forces) lands as a single update.
type slotTable struct {
	mu    sync.RWMutex
	slots [NumSlots]slot
}

func newSlotTable(cfgs [NumSlots]SlotConfig) *slotTable {
	t := &slotTable{}
	for i, c := range cfgs {
		s := slot{
			enabled:  c.Enabled,
			code:     strings.ToUpper(strings.TrimSpace(c.Code)),
			text:     nmea.Normalize(c.Text),
			interval: clampInterval(c.Interval),
		}
		s.setSensor(c.Sensor)
		t.slots[i] = s
	}
	return t
}

func (t *slotTable) view(i int) Slot {
	s := t.slots[i]
	return Slot{
		Index:       i,
		Enabled:     s.enabled,
		Sensor:      s.sensor,
		Code:        s.code,
		Text:        s.text,
		IntervalMs:  s.interval.Milliseconds(),
		LastFiredMs: s.lastFiredMs,
	}
}

func (t *slotTable) get(i int) (Slot, error) {
	if i < 0 || i >= NumSlots {
		return Slot{}, ErrBadSlot
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.view(i), nil
}

func (t *slotTable) all() []Slot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Slot, 0, NumSlots)
	for i := range t.slots {
		out = append(out, t.view(i))
	}
	return out
}

// update applies fn to slot i under the table lock and returns the result.
func (t *slotTable) update(i int, fn func(s *slot)) (Slot, error) {
	if i < 0 || i >= NumSlots {
		return Slot{}, ErrBadSlot
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.slots[i])
	return t.view(i), nil
}

// fire returns the outputs of every enabled slot whose interval has elapsed at
// nowMs, in slot order, and records nowMs as their last fire time. A free-text
// slot without text fires but produces nothing.
func (t *slotTable) fire(nowMs int64) []firing {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []firing
	for i := range t.slots {
		s := &t.slots[i]
		if !s.enabled {
			continue
		}
		if nowMs-s.lastFiredMs < s.interval.Milliseconds() {
			continue
		}
		s.lastFiredMs = nowMs
		if line := s.output(); line != "" {
			out = append(out, firing{slot: i, line: line})
		}
	}
	return out
}

type firing struct {
	slot int
	line string
}
