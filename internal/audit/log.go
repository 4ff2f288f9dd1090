// Package audit keeps a bounded in-memory trail of quality gate
// evaluations that did not cleanly pass. It is a diagnostic facility
// only; nothing downstream reads it back into decision making.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Capacity is the fixed size of the ring; the oldest entries are
// silently dropped once it is exceeded.
const Capacity = 500

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 50

// Entry is one recorded gate evaluation. Entries are immutable after
// recording; the only way to remove them is eviction or a bulk Clear.
type Entry struct {
	ID            string             `json:"id"`
	CreatedAt     time.Time          `json:"created_at"`
	Source        string             `json:"source"`
	Visibility    string             `json:"visibility"`
	WeightedScore float64            `json:"weighted_score"`
	Blockers      []string           `json:"blockers"`
	Scores        map[string]float64 `json:"scores"`
}

// Log is a fixed-capacity, newest-first ring of gate entries. Safe for
// concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

// NewLog creates an empty audit log.
func NewLog() *Log {
	return &Log{entries: make([]Entry, 0, Capacity)}
}

// Record prepends an entry, assigning it an id and timestamp, and drops
// the oldest entry if the ring is full.
func (l *Log) Record(source, visibility string, weightedScore float64, blockers []string, scores map[string]float64) Entry {
	entry := Entry{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Source:        source,
		Visibility:    visibility,
		WeightedScore: weightedScore,
		Blockers:      copyStrings(blockers),
		Scores:        copyScores(scores),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > Capacity {
		l.entries = l.entries[:Capacity]
	}
	return entry
}

// List returns up to min(max(1, limit), Capacity) most-recent entries,
// newest first. A non-positive limit means DefaultListLimit. Every entry
// is a defensive copy; mutating the result cannot touch the ring.
func (l *Log) List(limit int) []Entry {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > Capacity {
		limit = Capacity
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]Entry, 0, limit)
	for _, e := range l.entries[:limit] {
		copied := e
		copied.Blockers = copyStrings(e.Blockers)
		copied.Scores = copyScores(e.Scores)
		out = append(out, copied)
	}
	return out
}

// Len reports how many entries the ring currently holds.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear empties the ring.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyScores(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
