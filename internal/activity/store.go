package activity

import (
	"context"
	"time"
)

// Page adalah hasil satu permintaan ke store, terurut timestamp menurun.
type Page struct {
	Entries []LogEntry
	Next    *Cursor
}

// Store adalah kapabilitas baca log: scan terurut dengan filter dan lanjutan cursor.
type Store interface {
	Query(ctx context.Context, q Query) (Page, error)
}

// Appender menulis entri baru. Store menetapkan ID dan timestamp.
type Appender interface {
	Append(ctx context.Context, entry NewEntry) (LogEntry, error)
}

// Summarizer menghitung total per kategori langsung di store.
type Summarizer interface {
	Summary(ctx context.Context, preds []Predicate) (Summary, error)
}

// Summary berisi hitungan otoritatif untuk sebuah filter, dihitung di store.
type Summary struct {
	Total          int64              `json:"total"`
	ByCategory     map[Category]int64 `json:"by_category"`
	DistinctActors int64              `json:"distinct_actors"`
	LatestAt       time.Time          `json:"latest_at,omitzero"`
}
