// Package activity records every external command invocation made on
// behalf of a tunnel: the literal argv, the captured stdout and stderr,
// and when it ran. The log is an explicit injected object, append-only,
// in-memory for the lifetime of the process, and only ever persisted by
// an explicit Save.
package activity

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is the rendered-text byte ceiling of the log.
const DefaultCapacity = 6_000_000

// Entry is one recorded command invocation.
type Entry struct {
	Time    time.Time
	Command []string
	Stdout  string
	Stderr  string
}

// Render produces the entry's audit-trail text form.
func (e Entry) Render() string {
	return fmt.Sprintf("[%s] %s:\n%s%s\n",
		e.Time.Format("2006-01-02 15:04:05"),
		strings.Join(e.Command, " "),
		e.Stdout,
		e.Stderr,
	)
}

// Log is a bounded, thread-safe, append-only command audit trail.
// When the rendered text exceeds the byte ceiling, the oldest half of
// the ceiling's worth of entries is discarded: after a trim at most
// capacity/2 bytes remain, always cut at an entry boundary.
type Log struct {
	mu       sync.RWMutex
	capacity int
	entries  []Entry
	sizes    []int
	total    int
}

// NewLog creates a Log with the given byte ceiling. A non-positive
// capacity falls back to DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Append records one invocation and trims the log if the ceiling is
// exceeded.
func (l *Log) Append(e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	size := len(e.Render())

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	l.sizes = append(l.sizes, size)
	l.total += size

	if l.total > l.capacity {
		l.trim()
	}
}

// trim drops oldest entries until at most capacity/2 bytes remain.
// Callers must hold l.mu.
func (l *Log) trim() {
	keep := l.capacity / 2
	drop := 0
	for drop < len(l.entries) && l.total > keep {
		l.total -= l.sizes[drop]
		drop++
	}
	l.entries = append([]Entry(nil), l.entries[drop:]...)
	l.sizes = append([]int(nil), l.sizes[drop:]...)
}

// String returns the full rendered log text, oldest first.
func (l *Log) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var buf strings.Builder
	buf.Grow(l.total)
	for _, e := range l.entries {
		buf.WriteString(e.Render())
	}
	return buf.String()
}

// Entries returns the last n entries in chronological order; n larger
// than the stored count returns everything.
func (l *Log) Entries(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n > len(l.entries) {
		n = len(l.entries)
	}
	if n <= 0 {
		return nil
	}
	result := make([]Entry, n)
	copy(result, l.entries[len(l.entries)-n:])
	return result
}

// Count returns the number of stored entries.
func (l *Log) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Size returns the rendered byte size of the stored entries.
func (l *Log) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// Save writes the rendered log text to path. This is the only way log
// content ever reaches disk.
func (l *Log) Save(path string) error {
	text := l.String()
	if text == "" {
		return fmt.Errorf("save %s: the log is empty", path)
	}
	if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
