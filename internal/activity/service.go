package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidEntry menandakan masukan entri baru tidak valid.
var ErrInvalidEntry = errors.New("activity: invalid entry")

// Repository menggabungkan kapabilitas baca, tulis, dan ringkasan log.
type Repository interface {
	Store
	Appender
	Summarizer
}

// Recorder dipakai layar konten untuk mencatat aksi admin, baik langsung
// maupun melalui antrean.
type Recorder interface {
	RecordActivity(ctx context.Context, entry NewEntry) error
}

// Service mengoordinasikan penulisan dan pembacaan log aktivitas.
type Service struct {
	repo     Repository
	composer *Composer
	validate *validator.Validate
	metrics  *Metrics
	logger   *slog.Logger
}

// NewService membuat service log aktivitas.
func NewService(repo Repository, composer *Composer, metrics *Metrics, logger *slog.Logger) *Service {
	if composer == nil {
		composer = NewComposer(DefaultPageSize, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		composer: composer,
		validate: validator.New(),
		metrics:  metrics,
		logger:   logger,
	}
}

// Composer mengembalikan composer yang dipakai service.
func (s *Service) Composer() *Composer {
	return s.composer
}

// NewPager membuat Pager baru yang berbagi store dan composer service ini.
func (s *Service) NewPager(opts ...PagerOption) *Pager {
	base := []PagerOption{WithLogger(s.logger), WithMetrics(s.metrics)}
	return NewPager(s.repo, s.composer, append(base, opts...)...)
}

// Record memvalidasi lalu menulis satu entri baru.
func (s *Service) Record(ctx context.Context, entry NewEntry) (LogEntry, error) {
	if s.repo == nil {
		return LogEntry{}, fmt.Errorf("activity: repository not configured")
	}
	entry, err := s.normalizeEntry(entry)
	if err != nil {
		return LogEntry{}, err
	}
	saved, err := s.repo.Append(ctx, entry)
	if err != nil {
		return LogEntry{}, fmt.Errorf("activity: append entry: %w", err)
	}
	s.metrics.observeRecord(saved.Category)
	return saved, nil
}

// RecordActivity memenuhi Recorder dengan penulisan sinkron.
func (s *Service) RecordActivity(ctx context.Context, entry NewEntry) error {
	_, err := s.Record(ctx, entry)
	return err
}

// ValidateEntry memeriksa entri tanpa menulisnya.
func (s *Service) ValidateEntry(entry NewEntry) error {
	_, err := s.normalizeEntry(entry)
	return err
}

func (s *Service) normalizeEntry(entry NewEntry) (NewEntry, error) {
	entry.ActorID = strings.TrimSpace(entry.ActorID)
	entry.Description = strings.TrimSpace(entry.Description)
	entry.EntityID = strings.TrimSpace(entry.EntityID)
	entry.Category = Category(strings.ToUpper(strings.TrimSpace(string(entry.Category))))
	entry.EntityType = EntityType(strings.ToLower(strings.TrimSpace(string(entry.EntityType))))
	if entry.EntityType == EntityAll {
		entry.EntityType = EntityOther
	}
	if err := s.validate.Struct(entry); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return NewEntry{}, fmt.Errorf("%w: %s %s", ErrInvalidEntry, strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return NewEntry{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if !entry.Category.Known() {
		return NewEntry{}, fmt.Errorf("%w: unknown category %q", ErrInvalidEntry, entry.Category)
	}
	if !entry.EntityType.Known() {
		return NewEntry{}, fmt.Errorf("%w: unknown entity type %q", ErrInvalidEntry, entry.EntityType)
	}
	return entry, nil
}

// Page mengambil satu halaman tanpa state, dilanjutkan dari token cursor.
func (s *Service) Page(ctx context.Context, filter FilterState, cursorToken string) (Page, error) {
	if s.repo == nil {
		return Page{}, fmt.Errorf("activity: repository not configured")
	}
	after, err := DecodeCursor(cursorToken)
	if err != nil {
		return Page{}, err
	}
	q, err := s.composer.Compose(filter, after)
	if err != nil {
		return Page{}, err
	}
	page, err := s.repo.Query(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("activity: query page: %w", err)
	}
	page.Next = nil
	if n := len(page.Entries); n == q.Limit && n > 0 {
		page.Next = CursorAfter(page.Entries[n-1])
	}
	return page, nil
}

// Export menelusuri halaman hingga habis atau mencapai maxRows, lalu
// menerapkan istilah pencarian pada hasilnya.
func (s *Service) Export(ctx context.Context, filter FilterState, maxRows int) ([]LogEntry, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("activity: repository not configured")
	}
	var (
		all   []LogEntry
		after *Cursor
	)
	for {
		q, err := s.composer.Compose(filter, after)
		if err != nil {
			return nil, err
		}
		page, err := s.repo.Query(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("activity: export page: %w", err)
		}
		all = append(all, page.Entries...)
		if maxRows > 0 && len(all) >= maxRows {
			all = all[:maxRows]
			break
		}
		if len(page.Entries) < q.Limit || len(page.Entries) == 0 {
			break
		}
		after = CursorAfter(page.Entries[len(page.Entries)-1])
	}
	return Search(all, filter.Search), nil
}

// Summary menghitung total otoritatif per kategori untuk filter (tanpa Search).
func (s *Service) Summary(ctx context.Context, filter FilterState) (Summary, error) {
	if s.repo == nil {
		return Summary{}, fmt.Errorf("activity: repository not configured")
	}
	preds, err := s.composer.Predicates(filter)
	if err != nil {
		return Summary{}, err
	}
	summary, err := s.repo.Summary(ctx, preds)
	if err != nil {
		return Summary{}, fmt.Errorf("activity: summary: %w", err)
	}
	return summary, nil
}
