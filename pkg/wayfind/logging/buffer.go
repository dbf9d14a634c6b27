package logging

import "sync"

// DefaultBufferSize is the default number of entries the ring buffer keeps.
const DefaultBufferSize = 100

// Buffer holds recent log entries in a fixed-size ring for the TUI log
// viewer. Safe for concurrent use.
type Buffer struct {
	entries []Entry
	maxSize int
	start   int // index of the oldest entry
	count   int
	mu      sync.RWMutex
}

// NewBuffer creates a ring buffer holding at most maxSize entries.
func NewBuffer(maxSize int) *Buffer {
	if maxSize <= 0 {
		maxSize = DefaultBufferSize
	}
	return &Buffer{
		entries: make([]Entry, maxSize),
		maxSize: maxSize,
	}
}

// Add appends an entry, overwriting the oldest when the buffer is full.
func (b *Buffer) Add(entry Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := (b.start + b.count) % b.maxSize
	b.entries[idx] = entry

	if b.count < b.maxSize {
		b.count++
	} else {
		b.start = (b.start + 1) % b.maxSize
	}
}

// Entries returns a copy of all buffered entries, oldest first.
func (b *Buffer) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.entries[(b.start+i)%b.maxSize]
	}
	return out
}

// Last returns the most recent n entries, newest last. If fewer than n
// entries are buffered, all are returned.
func (b *Buffer) Last(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.count {
		n = b.count
	}

	out := make([]Entry, n)
	offset := b.count - n
	for i := 0; i < n; i++ {
		out[i] = b.entries[(b.start+offset+i)%b.maxSize]
	}
	return out
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Clear discards all buffered entries.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start = 0
	b.count = 0
}
