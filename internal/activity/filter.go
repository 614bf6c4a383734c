package activity

import "strings"

// DateLayout adalah format tanggal filter (granularitas harian).
const DateLayout = "2006-01-02"

// FilterState menyimpan pilihan filter admin saat ini. Nilainya comparable
// sehingga bisa dipakai untuk menandai fetch yang sedang berjalan.
type FilterState struct {
	Category   Category   `json:"category"`
	EntityType EntityType `json:"entity_type"`
	ActorID    string     `json:"actor_id"`
	DateFrom   string     `json:"date_from"`
	DateTo     string     `json:"date_to"`
	Search     string     `json:"search"`
}

// DefaultFilter mengembalikan filter awal: semua kategori, tanpa batasan.
func DefaultFilter() FilterState {
	return FilterState{Category: CategoryAll}
}

// Normalize merapikan spasi dan mengisi kategori kosong dengan ALL.
func (f FilterState) Normalize() FilterState {
	f.Category = Category(strings.ToUpper(strings.TrimSpace(string(f.Category))))
	if f.Category == "" {
		f.Category = CategoryAll
	}
	f.EntityType = EntityType(strings.ToLower(strings.TrimSpace(string(f.EntityType))))
	f.ActorID = strings.TrimSpace(f.ActorID)
	f.DateFrom = strings.TrimSpace(f.DateFrom)
	f.DateTo = strings.TrimSpace(f.DateTo)
	return f
}

// QueryPart mengembalikan filter tanpa istilah pencarian, yaitu bagian
// yang menentukan permintaan ke store.
func (f FilterState) QueryPart() FilterState {
	f.Search = ""
	return f
}

// FilterPatch adalah perubahan parsial terhadap FilterState. Field nil
// berarti tidak berubah.
type FilterPatch struct {
	Category   *Category   `json:"category,omitempty"`
	EntityType *EntityType `json:"entity_type,omitempty"`
	ActorID    *string     `json:"actor_id,omitempty"`
	DateFrom   *string     `json:"date_from,omitempty"`
	DateTo     *string     `json:"date_to,omitempty"`
	Search     *string     `json:"search,omitempty"`
}

// Apply menerapkan patch dan melaporkan apakah bagian query berubah.
// Perubahan yang hanya menyentuh Search tidak memicu fetch baru.
func (f FilterState) Apply(p FilterPatch) (FilterState, bool) {
	next := f
	if p.Category != nil {
		next.Category = *p.Category
	}
	if p.EntityType != nil {
		next.EntityType = *p.EntityType
	}
	if p.ActorID != nil {
		next.ActorID = *p.ActorID
	}
	if p.DateFrom != nil {
		next.DateFrom = *p.DateFrom
	}
	if p.DateTo != nil {
		next.DateTo = *p.DateTo
	}
	if p.Search != nil {
		next.Search = *p.Search
	}
	next = next.Normalize()
	return next, next.QueryPart() != f.Normalize().QueryPart()
}
