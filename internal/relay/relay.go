package relay

import (
	"sync"
	"sync/atomic"
	"time"
)

// Sink accepts one raw sentence. Sinks are best-effort: an error is counted
// and otherwise ignored.
type Sink interface {
	SendLine(line string) error
}

type namedSink struct {
	name string
	sink Sink
}

// Fanout forwards each line to every configured sink. Send never returns an
// error and never retries; loss is silent apart from the counters.
type Fanout struct {
	mu      sync.Mutex
	sinks   []namedSink
	lastErr string
	lastAt  time.Time

	sent   atomic.Uint64
	failed atomic.Uint64
}

func NewFanout() *Fanout {
	return &Fanout{}
}

func (f *Fanout) Add(name string, s Sink) {
	if f == nil || s == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, namedSink{name: name, sink: s})
}

func (f *Fanout) Send(line string) {
	if f == nil || line == "" {
		return
	}
	f.mu.Lock()
	sinks := f.sinks
	f.mu.Unlock()

	for _, s := range sinks {
		if err := s.sink.SendLine(line); err != nil {
			f.failed.Add(1)
			f.mu.Lock()
			f.lastErr = s.name + ": " + err.Error()
			f.lastAt = time.Now().UTC()
			f.mu.Unlock()
			continue
		}
		f.sent.Add(1)
	}
}

type Stats struct {
	Sinks        []string `json:"sinks"`
	Sent         uint64   `json:"sent"`
	Failed       uint64   `json:"failed"`
	LastError    string   `json:"last_error,omitempty"`
	LastErrorUTC string   `json:"last_error_utc,omitempty"`
}

func (f *Fanout) Stats() Stats {
	if f == nil {
		return Stats{}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st := Stats{
		Sinks:     make([]string, 0, len(f.sinks)),
		Sent:      f.sent.Load(),
		Failed:    f.failed.Load(),
		LastError: f.lastErr,
	}
	for _, s := range f.sinks {
		st.Sinks = append(st.Sinks, s.name)
	}
	if !f.lastAt.IsZero() {
		st.LastErrorUTC = f.lastAt.Format(time.RFC3339Nano)
	}
	return st
}
