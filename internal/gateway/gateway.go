package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"nmea-link/internal/indicator"
	"nmea-link/internal/nmea"
	"nmea-link/internal/ring"
	"nmea-link/internal/serialport"
)

// ErrUnsupportedBaud is returned by SetBaud for rates outside the catalog.
var ErrUnsupportedBaud = serialport.ErrUnsupportedBaud

const (
	DefaultPollInterval   = 5 * time.Millisecond
	DefaultMonitorLines   = 50
	DefaultGeneratorLines = 200

	// maxLineBytes bounds the partial-line accumulator; a line that grows
	// past it is dropped.
	maxLineBytes = 4096
)

// Peripheral is the serial device as seen by the polling loop.
type Peripheral interface {
	ReadAvailable(dst []byte) ([]byte, uint64, error)
	WriteLine(line string) error
	SetBaud(baud int) error
	Baud() int
	LastError() string
}

// Relay forwards valid and generated sentences off-box.
type Relay interface {
	Send(line string)
}

// Indicator is the status LED.
type Indicator interface {
	Flash(e indicator.Event, now time.Duration)
	Update(now time.Duration)
}

type Config struct {
	Role           Role
	PollInterval   time.Duration
	MonitorLines   int
	GeneratorLines int
	Slots          [NumSlots]SlotConfig
}

// DefaultConfig returns a monitor-role gateway with the factory slots.
func DefaultConfig() Config {
	return Config{
		Role:           RoleMonitor,
		PollInterval:   DefaultPollInterval,
		MonitorLines:   DefaultMonitorLines,
		GeneratorLines: DefaultGeneratorLines,
		Slots:          DefaultSlots(),
	}
}

type Status struct {
	RunState

	Baud     int   `json:"baud"`
	UptimeMs int64 `json:"uptime_ms"`

	MonitorLines     uint64 `json:"monitor_lines"`
	MonitorInvalid   uint64 `json:"monitor_invalid"`
	ChecksumFailures uint64 `json:"checksum_failures"`
	Dropped          uint64 `json:"dropped_overlong"`
	Generated        uint64 `json:"generated"`
	SerialErrors     uint64 `json:"serial_errors"`

	MonitorBuffered   int `json:"monitor_buffered"`
	GeneratorBuffered int `json:"generator_buffered"`

	LastSerialError string `json:"last_serial_error,omitempty"`
}

// Gateway owns the run state, the slot pool and both history buffers, and
// drives the serial peripheral from a single polling loop.
type Gateway struct {
	cfg   Config
	port  Peripheral
	relay Relay
	led   Indicator
	now   func() time.Duration

	stateMu sync.Mutex
	state   RunState

	slots     *slotTable
	monitor   *ring.Buffer
	generator *ring.Buffer

	// Owned by the polling loop.
	rx      []byte
	partial []byte
	rxGen   uint64

	monitorLines     atomic.Uint64
	monitorInvalid   atomic.Uint64
	checksumFailures atomic.Uint64
	dropped          atomic.Uint64
	generated        atomic.Uint64
	serialErrors     atomic.Uint64
}

// New builds a gateway. relay and led may be nil.
func New(cfg Config, port Peripheral, relay Relay, led Indicator) (*Gateway, error) {
	if port == nil {
		return nil, fmt.Errorf("gateway: peripheral is nil")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MonitorLines <= 0 {
		cfg.MonitorLines = DefaultMonitorLines
	}
	if cfg.GeneratorLines <= 0 {
		cfg.GeneratorLines = DefaultGeneratorLines
	}
	if relay == nil {
		relay = nopRelay{}
	}
	if led == nil {
		led = indicator.Nop()
	}

	start := time.Now()
	g := &Gateway{
		cfg:       cfg,
		port:      port,
		relay:     relay,
		led:       led,
		now:       func() time.Duration { return time.Since(start) },
		state:     RunState{Role: cfg.Role},
		slots:     newSlotTable(cfg.Slots),
		monitor:   ring.New(cfg.MonitorLines),
		generator: ring.New(cfg.GeneratorLines),
		rx:        make([]byte, 0, 1024),
		partial:   make([]byte, 0, 128),
	}
	for i, s := range g.slots.all() {
		g.warnUnknownCode(i, s)
	}
	return g, nil
}

type nopRelay struct{}

func (nopRelay) Send(string) {}

// Run polls until ctx is done.
func (g *Gateway) Run(ctx context.Context) error {
	t := time.NewTicker(g.cfg.PollInterval)
	defer t.Stop()

	log.Printf("gateway started role=%s poll=%s", g.RunState().Role, g.cfg.PollInterval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			g.Step(g.now())
		}
	}
}

// Step runs one iteration of the polling loop at time now (elapsed since the
// gateway started).
func (g *Gateway) Step(now time.Duration) {
	st := g.RunState()
	switch {
	case st.Role == RoleMonitor && st.MonitorRunning:
		g.pollMonitor(now)
	case st.Role == RoleGenerator && st.GeneratorRunning:
		g.pollGenerator(now)
	}
	g.led.Update(now)
}

func (g *Gateway) pollMonitor(now time.Duration) {
	data, gen, err := g.port.ReadAvailable(g.rx[:0])
	if err != nil && !errors.Is(err, serialport.ErrNotOpen) {
		g.serialErrors.Add(1)
	}
	if gen != g.rxGen {
		// The port was reopened; whatever was half-received belongs to the
		// old configuration.
		g.partial = g.partial[:0]
		g.rxGen = gen
	}
	for _, c := range data {
		switch {
		case c == '\n':
			line := string(g.partial)
			g.partial = g.partial[:0]
			g.handleLine(line, now)
		case c >= 32 && c <= 126:
			if len(g.partial) >= maxLineBytes {
				g.partial = g.partial[:0]
				g.dropped.Add(1)
			}
			g.partial = append(g.partial, c)
		}
	}
	g.rx = data[:0]
}

func (g *Gateway) handleLine(line string, now time.Duration) {
	g.monitorLines.Add(1)
	valid := nmea.Valid(line)
	if valid {
		if !nmea.ChecksumOK(line) {
			g.checksumFailures.Add(1)
		}
		g.led.Flash(indicator.EventRxValid, now)
	} else {
		g.monitorInvalid.Add(1)
		g.led.Flash(indicator.EventRxInvalid, now)
	}

	g.monitor.Push("[" + nmea.Classify(line).String() + "] " + line)
	if valid {
		g.relay.Send(line)
	}
}

func (g *Gateway) pollGenerator(now time.Duration) {
	for _, f := range g.slots.fire(now.Milliseconds()) {
		if err := g.port.WriteLine(f.line); err != nil && !errors.Is(err, serialport.ErrNotOpen) {
			g.serialErrors.Add(1)
		}
		g.relay.Send(f.line)
		g.generator.Push(f.line)
		g.generated.Add(1)
		g.led.Flash(indicator.EventTx, now)
	}
}

func (g *Gateway) RunState() RunState {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	return g.state
}

// SetRole switches role and pauses both activities; the operator has to
// start the new role explicitly.
func (g *Gateway) SetRole(r Role) {
	g.stateMu.Lock()
	g.state = RunState{Role: r}
	g.stateMu.Unlock()
	log.Printf("gateway role=%s", r)
}

func (g *Gateway) SetMonitorRunning(on bool) {
	g.stateMu.Lock()
	g.state.MonitorRunning = on
	g.stateMu.Unlock()
	log.Printf("gateway monitor running=%t", on)
}

func (g *Gateway) SetGeneratorRunning(on bool) {
	g.stateMu.Lock()
	g.state.GeneratorRunning = on
	g.stateMu.Unlock()
	log.Printf("gateway generator running=%t", on)
}

// SetBaud reconfigures the serial device. Rates outside the catalog return an
// error wrapping ErrUnsupportedBaud and leave the device untouched.
func (g *Gateway) SetBaud(baud int) error {
	if err := serialport.CheckBaud(baud); err != nil {
		return err
	}
	if err := g.port.SetBaud(baud); err != nil {
		log.Printf("gateway baud=%d apply failed: %v", baud, err)
		return err
	}
	log.Printf("gateway baud=%d", baud)
	return nil
}

func (g *Gateway) Baud() int { return g.port.Baud() }

func (g *Gateway) Slot(i int) (Slot, error) { return g.slots.get(i) }

func (g *Gateway) Slots() []Slot { return g.slots.all() }

func (g *Gateway) SetSlotEnabled(i int, on bool) (Slot, error) {
	s, err := g.slots.update(i, func(s *slot) { s.enabled = on })
	if err == nil {
		log.Printf("gateway slot=%d enabled=%t", i, on)
	}
	return s, err
}

// SetSlotSensor changes the slot category. Selecting OTHER also switches the
// code to CUSTOM so the slot emits its override text.
func (g *Gateway) SetSlotSensor(i int, c nmea.Category) (Slot, error) {
	s, err := g.slots.update(i, func(s *slot) { s.setSensor(c) })
	if err == nil {
		log.Printf("gateway slot=%d sensor=%s sentence=%s", i, s.Sensor, s.Code)
		g.warnUnknownCode(i, s)
	}
	return s, err
}

// SetSlotCode stores the sentence code (upper-cased). Codes with no catalog
// entry are accepted and generate an empty-fields sentence.
func (g *Gateway) SetSlotCode(i int, code string) (Slot, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	s, err := g.slots.update(i, func(s *slot) { s.code = code })
	if err == nil {
		log.Printf("gateway slot=%d sentence=%s", i, code)
		g.warnUnknownCode(i, s)
	}
	return s, err
}

// SetSlotText normalizes and stores the override text. Empty text clears the
// override so the slot goes back to its catalog template.
func (g *Gateway) SetSlotText(i int, text string) (Slot, error) {
	text = nmea.Normalize(text)
	s, err := g.slots.update(i, func(s *slot) { s.text = text })
	if err == nil {
		log.Printf("gateway slot=%d text=%q", i, text)
	}
	return s, err
}

// SetSlotInterval stores the firing period, raised to MinInterval.
func (g *Gateway) SetSlotInterval(i int, d time.Duration) (Slot, error) {
	d = clampInterval(d)
	s, err := g.slots.update(i, func(s *slot) { s.interval = d })
	if err == nil {
		log.Printf("gateway slot=%d interval_ms=%d", i, d.Milliseconds())
	}
	return s, err
}

// SlotTemplate regenerates the editable text of slot i and stores it as the
// override. Free-text slots keep their current text, or get the placeholder
// if they have none; every other slot gets the catalog template.
func (g *Gateway) SlotTemplate(i int) (string, error) {
	s, err := g.slots.update(i, func(s *slot) {
		if s.sensor == nmea.Other || s.code == nmea.CustomCode {
			t := s.text
			if t == "" {
				t = nmea.CustomPlaceholder
			}
			s.text = nmea.Normalize(t)
			return
		}
		s.text = nmea.TemplateFor(s.sensor, s.code)
	})
	return s.Text, err
}

// SlotEditable returns what an editor should show for slot i: the text the
// slot would send, without its checksum. Nothing is stored.
func (g *Gateway) SlotEditable(i int) (string, error) {
	s, err := g.slots.get(i)
	if err != nil {
		return "", err
	}
	full := s.Text
	if full == "" {
		if s.Sensor == nmea.Other || s.Code == nmea.CustomCode {
			full = nmea.CustomPlaceholder
		} else {
			full = nmea.TemplateFor(s.Sensor, s.Code)
		}
	}
	return nmea.StripChecksum(full), nil
}

func (g *Gateway) warnUnknownCode(i int, s Slot) {
	if s.Sensor == nmea.Other || s.Code == nmea.CustomCode || nmea.Known(s.Sensor, s.Code) {
		return
	}
	log.Printf("gateway slot=%d sentence=%s not in %s catalog; generating empty fields", i, s.Code, s.Sensor)
}

// MonitorLines returns the monitor history, oldest first.
func (g *Gateway) MonitorLines() []string { return g.monitor.Snapshot() }

// GeneratorLines returns the generated history, oldest first.
func (g *Gateway) GeneratorLines() []string { return g.generator.Snapshot() }

// MonitorVersion changes whenever the monitor history changes.
func (g *Gateway) MonitorVersion() uint64 { return g.monitor.Version() }

// GeneratorVersion changes whenever the generated history changes.
func (g *Gateway) GeneratorVersion() uint64 { return g.generator.Version() }

func (g *Gateway) ClearMonitor() {
	g.monitor.Clear()
	log.Printf("gateway monitor buffer cleared")
}

func (g *Gateway) ClearGenerator() {
	g.generator.Clear()
	log.Printf("gateway generator buffer cleared")
}

func (g *Gateway) Status() Status {
	return Status{
		RunState:          g.RunState(),
		Baud:              g.port.Baud(),
		UptimeMs:          g.now().Milliseconds(),
		MonitorLines:      g.monitorLines.Load(),
		MonitorInvalid:    g.monitorInvalid.Load(),
		ChecksumFailures:  g.checksumFailures.Load(),
		Dropped:           g.dropped.Load(),
		Generated:         g.generated.Load(),
		SerialErrors:      g.serialErrors.Load(),
		MonitorBuffered:   g.monitor.Len(),
		GeneratorBuffered: g.generator.Len(),
		LastSerialError:   g.port.LastError(),
	}
}
