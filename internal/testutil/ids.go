package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDs generates report IDs "report-0001", "report-0002", ...
//
// It replaces the UUID generator in tests so stored reports and golden
// output are stable across runs.
//
// Thread-safety: all methods are safe for concurrent use.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequenceIDs creates a generator. An empty prefix means "report".
func NewSequenceIDs(prefix string) *SequenceIDs {
	if prefix == "" {
		prefix = "report"
	}
	return &SequenceIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequenceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq)
}

// Reset restarts the sequence.
func (g *SequenceIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
