package activity

import (
	"errors"
	"fmt"
	"time"
)

// DefaultPageSize adalah jumlah entri per permintaan ke store.
const DefaultPageSize = 20

// ErrInvalidFilter menandakan kombinasi filter tidak dapat disusun menjadi query.
var ErrInvalidFilter = errors.New("activity: invalid filter")

// Field adalah kolom log yang dapat difilter.
type Field string

// Kolom yang didukung oleh store.
const (
	FieldCategory   Field = "category"
	FieldEntityType Field = "entity_type"
	FieldActorID    Field = "actor_id"
	FieldTimestamp  Field = "timestamp"
)

// Op adalah operator pembanding sebuah predikat.
type Op string

// Operator yang didukung.
const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

// Predicate adalah satu syarat bertipe. Semua predikat dalam Query
// digabung dengan AND.
type Predicate struct {
	Field Field
	Op    Op
	Value any
}

// Query adalah permintaan terurut dan terfilter yang tidak bergantung pada store.
// Urutan selalu timestamp menurun dengan ID sebagai pemecah seri.
type Query struct {
	Predicates []Predicate
	Limit      int
	After      *Cursor
}

// Composer menerjemahkan FilterState menjadi Query.
type Composer struct {
	pageSize int
	loc      *time.Location
}

// NewComposer membuat composer. Lokasi dipakai untuk batas hari lokal.
func NewComposer(pageSize int, loc *time.Location) *Composer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if loc == nil {
		loc = time.Local
	}
	return &Composer{pageSize: pageSize, loc: loc}
}

// PageSize mengembalikan ukuran halaman tetap.
func (c *Composer) PageSize() int {
	return c.pageSize
}

// Location mengembalikan zona waktu lokal composer.
func (c *Composer) Location() *time.Location {
	return c.loc
}

// Compose menyusun query untuk filter (tanpa Search). Bila after tidak nil,
// query dimulai tepat setelah posisi cursor.
func (c *Composer) Compose(filter FilterState, after *Cursor) (Query, error) {
	preds, err := c.Predicates(filter)
	if err != nil {
		return Query{}, err
	}
	return Query{Predicates: preds, Limit: c.pageSize, After: after}, nil
}

// Predicates mengembalikan daftar predikat konjungtif untuk filter.
func (c *Composer) Predicates(filter FilterState) ([]Predicate, error) {
	f := filter.Normalize()
	var preds []Predicate
	if f.Category != CategoryAll {
		if !f.Category.Known() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidFilter, f.Category)
		}
		preds = append(preds, Predicate{Field: FieldCategory, Op: OpEq, Value: string(f.Category)})
	}
	if f.EntityType != EntityAll {
		if !f.EntityType.Known() {
			return nil, fmt.Errorf("%w: unknown entity type %q", ErrInvalidFilter, f.EntityType)
		}
		preds = append(preds, Predicate{Field: FieldEntityType, Op: OpEq, Value: string(f.EntityType)})
	}
	if f.ActorID != "" {
		preds = append(preds, Predicate{Field: FieldActorID, Op: OpEq, Value: f.ActorID})
	}
	var from, to time.Time
	if f.DateFrom != "" {
		day, err := time.ParseInLocation(DateLayout, f.DateFrom, c.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date_from %q", ErrInvalidFilter, f.DateFrom)
		}
		from = StartOfDay(day, c.loc)
		preds = append(preds, Predicate{Field: FieldTimestamp, Op: OpGte, Value: from})
	}
	if f.DateTo != "" {
		day, err := time.ParseInLocation(DateLayout, f.DateTo, c.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date_to %q", ErrInvalidFilter, f.DateTo)
		}
		to = EndOfDay(day, c.loc)
		preds = append(preds, Predicate{Field: FieldTimestamp, Op: OpLte, Value: to})
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, fmt.Errorf("%w: date_from after date_to", ErrInvalidFilter)
	}
	return preds, nil
}

// StartOfDay mengembalikan tengah malam lokal dari hari t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay mengembalikan 23:59:59.999 lokal dari hari t.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}
