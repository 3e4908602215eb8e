package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"nmea-link/internal/ring"
)

const (
	defaultLogLines = 2000
	defaultLogTail  = 200
	maxLogTail      = 5000
)

// LogBuffer keeps the most recent process log lines for /api/logs. It is an
// io.Writer so it can sit behind log.SetOutput next to stderr.
type LogBuffer struct {
	mu      sync.Mutex
	partial []byte
	written uint64

	lines *ring.Buffer
}

func NewLogBuffer(maxLines int) *LogBuffer {
	if maxLines <= 0 {
		maxLines = defaultLogLines
	}
	return &LogBuffer{lines: ring.New(maxLines)}
}

// Write splits p on '\n'; a trailing fragment waits for the next call.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := p
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		b.partial = append(b.partial, data[:i]...)
		if line := strings.TrimRight(string(b.partial), "\r"); line != "" {
			b.lines.Push(line)
			b.written++
		}
		b.partial = b.partial[:0]
		data = data[i+1:]
	}
	b.partial = append(b.partial, data...)
	return len(p), nil
}

// Snapshot returns up to tail of the newest lines and how many older lines
// were overwritten.
func (b *LogBuffer) Snapshot(tail int) (lines []string, dropped uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := b.lines.Snapshot()
	if c := uint64(b.lines.Cap()); b.written > c {
		dropped = b.written - c
	}
	if tail <= 0 {
		tail = defaultLogTail
	}
	if tail < len(all) {
		all = all[len(all)-tail:]
	}
	return all, dropped
}

type LogsResponse struct {
	NowUTC  string   `json:"now_utc"`
	Dropped uint64   `json:"dropped"`
	Lines   []string `json:"lines"`
}

func (b *LogBuffer) Handler() http.Handler {
	return noStore(methods(func(w http.ResponseWriter, r *http.Request) {
		tail := defaultLogTail
		if s := strings.TrimSpace(r.FormValue("tail")); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v < 1 || v > maxLogTail {
				http.Error(w, fmt.Sprintf("tail must be an integer in [1,%d]", maxLogTail), http.StatusBadRequest)
				return
			}
			tail = v
		}

		lines, dropped := b.Snapshot(tail)
		if strings.EqualFold(r.FormValue("format"), "text") {
			if dropped > 0 {
				lines = append([]string{fmt.Sprintf("[dropped=%d]", dropped)}, lines...)
			}
			writeLines(w, lines)
			return
		}
		if lines == nil {
			lines = []string{}
		}
		writeJSON(w, LogsResponse{
			NowUTC:  time.Now().UTC().Format(time.RFC3339Nano),
			Dropped: dropped,
			Lines:   lines,
		})
	}, http.MethodGet))
}
