package diagnostics

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Entry is one message captured by Memory.
type Entry struct {
	Level   string
	Message string
	Args    []any
}

// Memory is a Logger that keeps every message, for tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory returns an empty Memory logger.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) add(level, msg string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Message: msg, Args: args})
}

func (m *Memory) Status(msg string, args ...any)  { m.add("status", msg, args) }
func (m *Memory) Warning(msg string, args ...any) { m.add("warning", msg, args) }
func (m *Memory) Error(msg string, args ...any)   { m.add("error", msg, args) }
func (m *Memory) Debug(msg string, args ...any)   { m.add("debug", msg, args) }

// Entries returns a copy of the captured messages at level, or all when level is empty.
func (m *Memory) Entries(level string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many messages at level contain substr.
func (m *Memory) Count(level, substr string) int {
	n := 0
	for _, e := range m.Entries(level) {
		if strings.Contains(e.String(), substr) {
			n++
		}
	}
	return n
}

func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for i := 0; i < len(e.Args); i++ {
		if attr, ok := e.Args[i].(slog.Attr); ok {
			fmt.Fprintf(&b, " %s=%v", attr.Key, attr.Value)
			continue
		}
		if i+1 < len(e.Args) {
			fmt.Fprintf(&b, " %v=%v", e.Args[i], e.Args[i+1])
			i++
		}
	}
	return b.String()
}
