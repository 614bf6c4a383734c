package activity

import "time"

// Stats adalah agregat presentasional dari entri yang sedang dimuat,
// bukan total otoritatif di store.
type Stats struct {
	TotalLoaded    int `json:"total_loaded"`
	DistinctActors int `json:"distinct_actors"`
	TodayCount     int `json:"today_count"`
	DisplayedCount int `json:"displayed_count"`
}

// ComputeStats menghitung statistik dari entri termuat dan entri yang ditampilkan.
// "Hari ini" ditentukan oleh hari kalender lokal dari now.
func ComputeStats(loaded, displayed []LogEntry, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.Local
	}
	today := now.In(loc)
	ty, tm, td := today.Date()
	actors := make(map[string]struct{}, len(loaded))
	stats := Stats{TotalLoaded: len(loaded), DisplayedCount: len(displayed)}
	for _, e := range loaded {
		actors[e.ActorID] = struct{}{}
		if e.Timestamp.IsZero() {
			continue
		}
		y, m, d := e.Timestamp.In(loc).Date()
		if y == ty && m == tm && d == td {
			stats.TodayCount++
		}
	}
	stats.DistinctActors = len(actors)
	return stats
}
