package activity

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Repository ordered by timestamp desc, id desc.
type memStore struct {
	mu      sync.Mutex
	entries []LogEntry
	queries []Query
	err     error
	seq     int
	now     time.Time
}

func newMemStore(entries ...LogEntry) *memStore {
	s := &memStore{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	s.entries = append(s.entries, entries...)
	return s
}

func (s *memStore) Query(ctx context.Context, q Query) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return Page{}, s.err
	}
	sorted := make([]LogEntry, len(s.entries))
	copy(sorted, s.entries)
	sort.SliceStable(sorted, func(i, j int) bool { return entryBefore(sorted[i], sorted[j]) })

	var out []LogEntry
	for _, e := range sorted {
		if !matchesPredicates(e, q.Predicates) {
			continue
		}
		if q.After != nil && !entryBefore(cursorEntry(q.After), e) {
			continue
		}
		out = append(out, e)
		if len(out) == q.Limit {
			break
		}
	}
	page := Page{Entries: out}
	if len(out) == q.Limit && len(out) > 0 {
		page.Next = CursorAfter(out[len(out)-1])
	}
	return page, nil
}

func (s *memStore) Append(ctx context.Context, entry NewEntry) (LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return LogEntry{}, s.err
	}
	s.seq++
	s.now = s.now.Add(time.Minute)
	saved := LogEntry{
		ID:          fmt.Sprintf("new-%03d", s.seq),
		ActorID:     entry.ActorID,
		Category:    entry.Category,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Description: entry.Description,
		Timestamp:   s.now,
		Detail:      entry.Detail,
	}
	s.entries = append(s.entries, saved)
	return saved, nil
}

func (s *memStore) Summary(ctx context.Context, preds []Predicate) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Summary{}, s.err
	}
	summary := Summary{ByCategory: map[Category]int64{}}
	actors := map[string]struct{}{}
	for _, e := range s.entries {
		if !matchesPredicates(e, preds) {
			continue
		}
		summary.Total++
		summary.ByCategory[e.Category]++
		actors[e.ActorID] = struct{}{}
		if e.Timestamp.After(summary.LatestAt) {
			summary.LatestAt = e.Timestamp
		}
	}
	summary.DistinctActors = int64(len(actors))
	return summary, nil
}

func (s *memStore) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func (s *memStore) lastQuery() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[len(s.queries)-1]
}

func cursorEntry(c *Cursor) LogEntry {
	return LogEntry{ID: c.ID, Timestamp: c.Timestamp}
}

// entryBefore reports whether a sorts ahead of b in descending order.
func entryBefore(a, b LogEntry) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.ID > b.ID
}

func matchesPredicates(e LogEntry, preds []Predicate) bool {
	for _, p := range preds {
		switch p.Field {
		case FieldCategory:
			if string(e.Category) != p.Value.(string) {
				return false
			}
		case FieldEntityType:
			if string(e.EntityType) != p.Value.(string) {
				return false
			}
		case FieldActorID:
			if e.ActorID != p.Value.(string) {
				return false
			}
		case FieldTimestamp:
			bound := p.Value.(time.Time)
			if p.Op == OpGte && e.Timestamp.Before(bound) {
				return false
			}
			if p.Op == OpLte && e.Timestamp.After(bound) {
				return false
			}
		}
	}
	return true
}

// seqEntries builds n entries one minute apart, newest first, with ids e001.. .
func seqEntries(n int, start time.Time) []LogEntry {
	out := make([]LogEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, LogEntry{
			ID:          fmt.Sprintf("e%03d", n-i),
			ActorID:     fmt.Sprintf("admin-%d", i%3),
			Category:    Categories()[i%len(Categories())],
			EntityType:  EntityTypes()[i%len(EntityTypes())],
			Description: fmt.Sprintf("aksi nomor %d", n-i),
			Timestamp:   start.Add(-time.Duration(i) * time.Minute),
		})
	}
	return out
}
