package activity

import "time"

// Detail menampung payload terstruktur bebas dari sebuah entri log.
// Isinya tidak ditafsirkan, hanya ditampilkan oleh Inspect.
type Detail map[string]any

// LogEntry mewakili satu catatan audit yang tidak dapat diubah.
type LogEntry struct {
	ID          string     `json:"id"`
	ActorID     string     `json:"actor_id"`
	Category    Category   `json:"category"`
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id,omitempty"`
	Description string     `json:"description"`
	Timestamp   time.Time  `json:"timestamp"`
	Detail      Detail     `json:"detail,omitempty"`
}

// NewEntry adalah masukan untuk menulis entri baru. ID dan waktu
// ditetapkan oleh store saat penulisan.
type NewEntry struct {
	ActorID     string     `json:"actor_id" validate:"required,max=128"`
	Category    Category   `json:"category" validate:"required"`
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id,omitempty" validate:"max=128"`
	Description string     `json:"description" validate:"required,max=500"`
	Detail      Detail     `json:"detail,omitempty"`
}
