package web

import (
	"sync/atomic"
	"time"

	"nmea-link/internal/gateway"
	"nmea-link/internal/relay"
)

// Status carries the process-level facts that are not owned by the gateway:
// start time, static configuration and optional collaborator stats.
type Status struct {
	startUnixNano int64
	static        atomic.Value // map[string]any
	relayStats    atomic.Value // func() relay.Stats
	ledCounts     atomic.Value // func() map[string]uint64
}

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.static.Store(map[string]any{})
	s.relayStats.Store(func() relay.Stats { return relay.Stats{} })
	s.ledCounts.Store(func() map[string]uint64 { return nil })
	return s
}

// SetStatic replaces the configuration summary shown in /api/status.
func (s *Status) SetStatic(info map[string]any) {
	if info != nil {
		s.static.Store(info)
	}
}

func (s *Status) SetRelay(fn func() relay.Stats) {
	if fn != nil {
		s.relayStats.Store(fn)
	}
}

func (s *Status) SetIndicator(fn func() map[string]uint64) {
	if fn != nil {
		s.ledCounts.Store(fn)
	}
}

type StatusSnapshot struct {
	Service   string            `json:"service"`
	NowUTC    string            `json:"now_utc"`
	UptimeSec int64             `json:"uptime_sec"`
	Config    map[string]any    `json:"config"`
	Gateway   gateway.Status    `json:"gateway"`
	Relay     relay.Stats       `json:"relay"`
	LED       map[string]uint64 `json:"led,omitempty"`
}

func (s *Status) Snapshot(nowUTC time.Time, gw gateway.Status) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()

	return StatusSnapshot{
		Service:   "nmea-link",
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(nowUTC.Sub(start).Seconds()),
		Config:    s.static.Load().(map[string]any),
		Gateway:   gw,
		Relay:     s.relayStats.Load().(func() relay.Stats)(),
		LED:       s.ledCounts.Load().(func() map[string]uint64)(),
	}
}
