package activity

import (
	"strings"

	"golang.org/x/text/cases"
)

// Search menyaring entri yang sudah dimuat tanpa round trip ke store.
// Istilah kosong mengembalikan slice yang sama persis. Selain itu hasilnya
// adalah subsekuens berurutan yang deskripsi, actor, atau jenis entitasnya
// memuat istilah (tidak peka huruf besar/kecil).
func Search(entries []LogEntry, term string) []LogEntry {
	term = strings.TrimSpace(term)
	if term == "" {
		return entries
	}
	fold := cases.Fold()
	needle := fold.String(term)
	out := make([]LogEntry, 0, len(entries))
	for _, e := range entries {
		if matches(fold, e, needle) {
			out = append(out, e)
		}
	}
	return out
}

// Matches melaporkan apakah satu entri cocok dengan istilah pencarian.
func Matches(e LogEntry, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	fold := cases.Fold()
	return matches(fold, e, fold.String(term))
}

func matches(fold cases.Caser, e LogEntry, needle string) bool {
	for _, hay := range []string{e.Description, e.ActorID, string(e.EntityType)} {
		if hay == "" {
			continue
		}
		if strings.Contains(fold.String(hay), needle) {
			return true
		}
	}
	return false
}
