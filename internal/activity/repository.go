package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedQuery menandakan store tidak mendukung kombinasi predikat.
var ErrUnsupportedQuery = fmt.Errorf("%w: unsupported predicate", ErrInvalidFilter)

// DBTX adalah subset pgx yang dipakai repository; *pgxpool.Pool dan pgx.Tx memenuhinya.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository menyimpan log aktivitas pada tabel activity_logs.
type PostgresRepository struct {
	db     DBTX
	logger *slog.Logger
}

// NewRepository membuat repository PostgreSQL.
func NewRepository(db DBTX, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

var predicateColumns = map[Field]string{
	FieldCategory:   "category",
	FieldEntityType: "entity_type",
	FieldActorID:    "actor_id",
	FieldTimestamp:  "occurred_at",
}

const selectColumns = `id::text, actor_id, category, entity_type, entity_id, description, occurred_at, detail`

// Query menjalankan scan terurut occurred_at DESC, id DESC.
func (r *PostgresRepository) Query(ctx context.Context, q Query) (Page, error) {
	where, args, err := buildWhere(q.Predicates, q.After)
	if err != nil {
		return Page{}, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	args = append(args, limit)
	sql := fmt.Sprintf(`SELECT %s FROM activity_logs WHERE %s ORDER BY occurred_at DESC, id DESC LIMIT $%d`, selectColumns, where, len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return Page{}, mapPgError(err)
	}
	defer rows.Close()

	entries := make([]LogEntry, 0, limit)
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return Page{}, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return Page{}, mapPgError(err)
	}
	page := Page{Entries: entries}
	if len(entries) == limit {
		page.Next = CursorAfter(entries[len(entries)-1])
	}
	return page, nil
}

// Append menulis entri baru; ID dan occurred_at ditetapkan di sini.
func (r *PostgresRepository) Append(ctx context.Context, entry NewEntry) (LogEntry, error) {
	id := uuid.New()
	var detail []byte
	if len(entry.Detail) > 0 {
		raw, err := json.Marshal(entry.Detail)
		if err != nil {
			return LogEntry{}, fmt.Errorf("activity: encode detail: %w", err)
		}
		detail = raw
	}
	var at time.Time
	err := r.db.QueryRow(ctx, `INSERT INTO activity_logs (id, actor_id, category, entity_type, entity_id, description, detail, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, clock_timestamp())
RETURNING occurred_at`,
		id, entry.ActorID, string(entry.Category), string(entry.EntityType), optionalText(entry.EntityID), entry.Description, detail,
	).Scan(&at)
	if err != nil {
		return LogEntry{}, mapPgError(err)
	}
	return LogEntry{
		ID:          id.String(),
		ActorID:     entry.ActorID,
		Category:    entry.Category,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Description: entry.Description,
		Timestamp:   at,
		Detail:      entry.Detail,
	}, nil
}

// Summary menjalankan hitungan per kategori dan agregat actor secara paralel.
func (r *PostgresRepository) Summary(ctx context.Context, preds []Predicate) (Summary, error) {
	where, args, err := buildWhere(preds, nil)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{ByCategory: make(map[Category]int64)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.db.Query(gctx, `SELECT category, COUNT(*) FROM activity_logs WHERE `+where+` GROUP BY category`, args...)
		if err != nil {
			return mapPgError(err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				category string
				count    int64
			)
			if err := rows.Scan(&category, &count); err != nil {
				return err
			}
			summary.ByCategory[Category(category)] = count
		}
		return rows.Err()
	})
	var (
		distinct int64
		latest   pgtype.Timestamptz
		total    int64
	)
	g.Go(func() error {
		err := r.db.QueryRow(gctx, `SELECT COUNT(*), COUNT(DISTINCT actor_id), MAX(occurred_at) FROM activity_logs WHERE `+where, args...).Scan(&total, &distinct, &latest)
		return mapPgError(err)
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	summary.Total = total
	summary.DistinctActors = distinct
	if latest.Valid {
		summary.LatestAt = latest.Time
	}
	return summary, nil
}

func (r *PostgresRepository) scanEntry(rows pgx.Rows) (LogEntry, error) {
	var (
		entry      LogEntry
		category   string
		entityType string
		entityID   pgtype.Text
		at         pgtype.Timestamptz
		detail     []byte
	)
	if err := rows.Scan(&entry.ID, &entry.ActorID, &category, &entityType, &entityID, &entry.Description, &at, &detail); err != nil {
		return LogEntry{}, fmt.Errorf("activity: scan entry: %w", err)
	}
	entry.Category = Category(category)
	entry.EntityType = EntityType(entityType)
	if entityID.Valid {
		entry.EntityID = entityID.String
	}
	if at.Valid {
		entry.Timestamp = at.Time
	}
	if len(detail) > 0 {
		var payload Detail
		if err := json.Unmarshal(detail, &payload); err != nil {
			r.logger.Warn("decode activity detail", slog.String("id", entry.ID), slog.Any("error", err))
		} else {
			entry.Detail = payload
		}
	}
	return entry, nil
}

// buildWhere menerjemahkan predikat menjadi klausa WHERE berparameter.
// Hanya kesamaan pada kolom teks dan rentang pada timestamp yang didukung.
func buildWhere(preds []Predicate, after *Cursor) (string, []any, error) {
	conditions := make([]string, 0, len(preds)+1)
	args := make([]any, 0, len(preds)+2)
	for _, p := range preds {
		column, ok := predicateColumns[p.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: field %q", ErrUnsupportedQuery, p.Field)
		}
		var op string
		switch {
		case p.Field == FieldTimestamp && p.Op == OpGte:
			op = ">="
		case p.Field == FieldTimestamp && p.Op == OpLte:
			op = "<="
		case p.Field != FieldTimestamp && p.Op == OpEq:
			op = "="
		default:
			return "", nil, fmt.Errorf("%w: %s %s", ErrUnsupportedQuery, p.Field, p.Op)
		}
		if p.Field == FieldTimestamp {
			if _, ok := p.Value.(time.Time); !ok {
				return "", nil, fmt.Errorf("%w: timestamp value %T", ErrUnsupportedQuery, p.Value)
			}
		}
		args = append(args, p.Value)
		conditions = append(conditions, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}
	if after != nil {
		args = append(args, after.Timestamp, after.ID)
		conditions = append(conditions, fmt.Sprintf("(occurred_at, id) < ($%d, $%d::uuid)", len(args)-1, len(args)))
	}
	if len(conditions) == 0 {
		return "TRUE", args, nil
	}
	return strings.Join(conditions, " AND "), args, nil
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

// mapPgError memetakan kode error PostgreSQL yang berasal dari masukan
// pengguna menjadi error filter.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02", "22007", "22008":
			return fmt.Errorf("%w: %s", ErrInvalidCursor, pgErr.Message)
		}
	}
	return err
}
