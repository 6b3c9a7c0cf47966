package freshness

import (
	"context"
	"time"

	"example.com/physique/internal/muscle"
)

// Record is the persisted per-muscle state.
type Record struct {
	Score        float64    `json:"score"`
	LastTrained  *time.Time `json:"lastTrained"`
	WeeklyVolume int        `json:"weeklyVolume"`
}

// Snapshot is the full persisted state stored under one key.
type Snapshot struct {
	Muscles        map[muscle.ID]Record `json:"muscles"`
	LastCalculated *time.Time           `json:"lastCalculated"`
}

// Store persists snapshots. LoadSnapshot returns (nil, nil) when nothing is
// stored under key. SaveSnapshot replaces any previous snapshot.
type Store interface {
	LoadSnapshot(ctx context.Context, key string) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, key string, snapshot Snapshot) error
}

func zeroRecords() map[muscle.ID]Record {
	records := make(map[muscle.ID]Record, muscle.Count)
	for _, id := range muscle.IDs() {
		records[id] = Record{}
	}
	return records
}

func cloneRecords(in map[muscle.ID]Record) map[muscle.ID]Record {
	out := make(map[muscle.ID]Record, len(in))
	for id, rec := range in {
		if rec.LastTrained != nil {
			ts := *rec.LastTrained
			rec.LastTrained = &ts
		}
		out[id] = rec
	}
	return out
}
