package activity

import (
	"strings"
	"time"
)

// EmptyDisplay dipakai untuk field yang hilang atau rusak.
const EmptyDisplay = "-"

// DisplayTimeLayout adalah format waktu pada daftar log.
const DisplayTimeLayout = "02 Jan 2006 15:04"

// Row adalah proyeksi satu entri yang aman untuk ditampilkan.
type Row struct {
	ID            string `json:"id"`
	Actor         string `json:"actor"`
	Category      string `json:"category"`
	CategoryLabel string `json:"category_label"`
	EntityType    string `json:"entity_type"`
	EntityLabel   string `json:"entity_label"`
	EntityID      string `json:"entity_id"`
	Description   string `json:"description"`
	Time          string `json:"time"`
	HasDetail     bool   `json:"has_detail"`
}

// FormatTimestamp memformat waktu lokal, atau "-" untuk timestamp kosong.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return EmptyDisplay
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DisplayTimeLayout)
}

// ToRow memproyeksikan entri; field yang hilang menjadi "-".
func ToRow(e LogEntry, loc *time.Location) Row {
	return Row{
		ID:            e.ID,
		Actor:         orDash(e.ActorID),
		Category:      orDash(string(e.Category)),
		CategoryLabel: e.Category.Label(),
		EntityType:    orDash(string(e.EntityType)),
		EntityLabel:   e.EntityType.Label(),
		EntityID:      orDash(e.EntityID),
		Description:   orDash(e.Description),
		Time:          FormatTimestamp(e.Timestamp, loc),
		HasDetail:     len(e.Detail) > 0,
	}
}

// ToRows memproyeksikan sekumpulan entri dengan urutan yang sama.
func ToRows(entries []LogEntry, loc *time.Location) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, ToRow(e, loc))
	}
	return rows
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return EmptyDisplay
	}
	return v
}
