package audit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_RecordAssignsIDAndTimestamp(t *testing.T) {
	l := NewLog()

	entry := l.Record("headline-feed", "hidden", 12.34, []string{"timeliness_low"}, map[string]float64{"timeliness": 5})

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Equal(t, "headline-feed", entry.Source)
	assert.Equal(t, 12.34, entry.WeightedScore)
}

func TestLog_NewestFirst(t *testing.T) {
	l := NewLog()
	l.Record("first", "hidden", 1, nil, nil)
	l.Record("second", "hidden", 2, nil, nil)

	entries := l.List(10)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Source)
	assert.Equal(t, "first", entries[1].Source)
}

func TestLog_EvictsOldestAtCapacity(t *testing.T) {
	l := NewLog()
	for i := 0; i <= Capacity; i++ {
		l.Record(fmt.Sprintf("source-%d", i), "hidden", float64(i), nil, nil)
	}

	assert.Equal(t, Capacity, l.Len())

	// The single oldest entry (source-0) is gone; the newest survives.
	entries := l.List(Capacity)
	require.Len(t, entries, Capacity)
	assert.Equal(t, fmt.Sprintf("source-%d", Capacity), entries[0].Source)
	assert.Equal(t, "source-1", entries[Capacity-1].Source)
}

func TestLog_ListLimit(t *testing.T) {
	l := NewLog()
	for i := 0; i < Capacity; i++ {
		l.Record(fmt.Sprintf("source-%d", i), "low_impact", 50, nil, nil)
	}

	assert.Len(t, l.List(10), 10)
	assert.Len(t, l.List(0), DefaultListLimit)
	assert.Len(t, l.List(-5), DefaultListLimit)
	assert.Len(t, l.List(Capacity+100), Capacity)
}

func TestLog_ListReturnsDefensiveCopies(t *testing.T) {
	l := NewLog()
	l.Record("feed", "hidden", 10, []string{"relevance_low"}, map[string]float64{"relevance": 3})

	entries := l.List(1)
	require.Len(t, entries, 1)
	entries[0].Blockers[0] = "mutated"
	entries[0].Scores["relevance"] = 999

	fresh := l.List(1)
	assert.Equal(t, "relevance_low", fresh[0].Blockers[0])
	assert.Equal(t, 3.0, fresh[0].Scores["relevance"])
}

func TestLog_Clear(t *testing.T) {
	l := NewLog()
	l.Record("feed", "hidden", 10, nil, nil)

	l.Clear()
	assert.Zero(t, l.Len())
	assert.Empty(t, l.List(10))
}
