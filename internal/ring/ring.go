package ring

import "sync"

// Buffer is a fixed-capacity, overwrite-oldest line log.
//
// Push advances the cursor and overwrites the entry there; Snapshot walks from
// the entry after the cursor around to the cursor itself, so lines come back
// oldest first. Entries that were never written are skipped. All methods are
// safe for concurrent use; each Buffer is its own lock domain.
type Buffer struct {
	mu     sync.Mutex
	lines  []string
	cursor int
	pushed uint64
}

func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{lines: make([]string, capacity)}
}

func (b *Buffer) Push(line string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cursor = (b.cursor + 1) % len(b.lines)
	b.lines[b.cursor] = line
	b.pushed++
}

// Snapshot returns a fresh copy of the retained lines, oldest first. Reading
// never consumes anything; every call recomputes from the current state.
func (b *Buffer) Snapshot() []string {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.lines))
	for i := 1; i <= len(b.lines); i++ {
		line := b.lines[(b.cursor+i)%len(b.lines)]
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func (b *Buffer) Clear() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.lines {
		b.lines[i] = ""
	}
	b.cursor = 0
	b.pushed++
}

// Len is the number of non-empty entries.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, line := range b.lines {
		if line != "" {
			n++
		}
	}
	return n
}

func (b *Buffer) Cap() int {
	if b == nil {
		return 0
	}
	return len(b.lines)
}

// Version changes whenever the contents change (push or clear). Live streams
// use it to skip sending unchanged snapshots.
func (b *Buffer) Version() uint64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pushed
}
