package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrStaleResult dikembalikan ketika hasil fetch dibuang karena filter atau
// refresh sudah menggantikannya selama fetch berjalan.
var ErrStaleResult = errors.New("activity: stale result discarded")

// Status adalah keadaan Pager.
type Status string

// Keadaan Pager.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

// PageState adalah salinan keadaan halaman yang sudah dimuat.
type PageState struct {
	Entries []LogEntry
	Cursor  *Cursor
	HasMore bool
}

// View adalah proyeksi baca-saja untuk lapisan tampilan.
type View struct {
	Filter      FilterState `json:"filter"`
	Status      Status      `json:"status"`
	Entries     []LogEntry  `json:"-"`
	Rows        []Row       `json:"entries"`
	Stats       Stats       `json:"stats"`
	IsLoading   bool        `json:"is_loading"`
	HasMore     bool        `json:"has_more"`
	CanLoadMore bool        `json:"can_load_more"`
	Err         error       `json:"-"`
	Error       string      `json:"error,omitempty"`
}

// PagerOption mengatur dependensi opsional Pager.
type PagerOption func(*Pager)

// WithLogger memasang logger.
func WithLogger(logger *slog.Logger) PagerOption {
	return func(p *Pager) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics memasang collector Prometheus.
func WithMetrics(m *Metrics) PagerOption {
	return func(p *Pager) {
		p.metrics = m
	}
}

// WithClock mengganti sumber waktu untuk statistik "hari ini".
func WithClock(now func() time.Time) PagerOption {
	return func(p *Pager) {
		if now != nil {
			p.now = now
		}
	}
}

// Pager memiliki FilterState dan PageState serta transisinya. Hanya ada satu
// fetch yang dimiliki per generasi filter; hasil dari generasi lama dibuang.
type Pager struct {
	store    Store
	composer *Composer
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time

	mu         sync.Mutex
	filter     FilterState
	entries    []LogEntry
	cursor     *Cursor
	hasMore    bool
	status     Status
	err        error
	generation uint64
	inflight   bool
}

type fetchTicket struct {
	generation   uint64
	query        Query
	continuation bool
}

// NewPager membuat Pager dalam keadaan Idle dengan filter default.
func NewPager(store Store, composer *Composer, opts ...PagerOption) *Pager {
	if composer == nil {
		composer = NewComposer(DefaultPageSize, nil)
	}
	p := &Pager{
		store:    store,
		composer: composer,
		logger:   slog.Default(),
		now:      time.Now,
		filter:   DefaultFilter(),
		status:   StatusIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetFilter menerapkan perubahan parsial. Perubahan selain Search
// mengosongkan entri dan cursor lalu memuat halaman pertama; perubahan
// Search saja tidak menyentuh store.
func (p *Pager) SetFilter(ctx context.Context, patch FilterPatch) error {
	p.mu.Lock()
	next, changed := p.filter.Apply(patch)
	p.filter = next
	if !changed {
		p.mu.Unlock()
		return nil
	}
	ticket, err := p.resetLocked()
	p.mu.Unlock()
	if err != nil {
		return err
	}
	return p.run(ctx, ticket)
}

// LoadMore memuat halaman berikutnya. Tidak melakukan apa pun bila tidak ada
// halaman lagi atau fetch masih berjalan.
func (p *Pager) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	if p.inflight || !p.hasMore || p.cursor == nil {
		p.mu.Unlock()
		return nil
	}
	ticket, err := p.beginLocked(true)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	return p.run(ctx, ticket)
}

// Refresh mengosongkan entri dan cursor lalu memuat ulang halaman pertama.
func (p *Pager) Refresh(ctx context.Context) error {
	p.mu.Lock()
	ticket, err := p.resetLocked()
	p.mu.Unlock()
	if err != nil {
		return err
	}
	return p.run(ctx, ticket)
}

// EnsureLoaded memuat halaman pertama bila Pager masih Idle.
func (p *Pager) EnsureLoaded(ctx context.Context) error {
	p.mu.Lock()
	idle := p.status == StatusIdle && !p.inflight
	p.mu.Unlock()
	if !idle {
		return nil
	}
	return p.Refresh(ctx)
}

// SelectEntry mencari entri termuat berdasarkan ID.
func (p *Pager) SelectEntry(id string) (LogEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		if e.ID == id {
			return e, true
		}
	}
	return LogEntry{}, false
}

// Filter mengembalikan filter aktif.
func (p *Pager) Filter() FilterState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// State mengembalikan salinan PageState.
func (p *Pager) State() PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PageState{Entries: cloneEntries(p.entries), Cursor: cloneCursor(p.cursor), HasMore: p.hasMore}
}

// View menyusun proyeksi untuk tampilan: hasil pencarian, statistik, dan
// kontrol paging yang tetap mencerminkan entri termuat tanpa pencarian.
func (p *Pager) View() View {
	p.mu.Lock()
	loaded := cloneEntries(p.entries)
	v := View{
		Filter:    p.filter,
		Status:    p.status,
		IsLoading: p.inflight,
		HasMore:   p.hasMore,
		Err:       p.err,
	}
	p.mu.Unlock()

	displayed := Search(loaded, v.Filter.Search)
	v.Entries = displayed
	v.Rows = ToRows(displayed, p.composer.Location())
	v.Stats = ComputeStats(loaded, displayed, p.now(), p.composer.Location())
	v.CanLoadMore = v.HasMore && !v.IsLoading && strings.TrimSpace(v.Filter.Search) == ""
	if v.Err != nil {
		v.Error = v.Err.Error()
	}
	return v
}

func (p *Pager) resetLocked() (*fetchTicket, error) {
	p.generation++
	p.entries = nil
	p.cursor = nil
	p.hasMore = false
	p.err = nil
	p.status = StatusIdle
	p.inflight = false
	return p.beginLocked(false)
}

func (p *Pager) beginLocked(continuation bool) (*fetchTicket, error) {
	var after *Cursor
	if continuation {
		after = cloneCursor(p.cursor)
	}
	q, err := p.composer.Compose(p.filter, after)
	if err != nil {
		p.status = StatusError
		p.err = err
		return nil, err
	}
	p.status = StatusLoading
	p.inflight = true
	return &fetchTicket{generation: p.generation, query: q, continuation: continuation}, nil
}

func (p *Pager) run(ctx context.Context, t *fetchTicket) error {
	kind := "first"
	if t.continuation {
		kind = "more"
	}
	start := time.Now()
	page, err := p.store.Query(ctx, t.query)
	p.metrics.observeFetch(kind, start, err)

	p.mu.Lock()
	defer p.mu.Unlock()
	if t.generation != p.generation {
		p.metrics.observeStale()
		p.logger.Debug("discard stale activity page", slog.String("kind", kind), slog.Uint64("generation", t.generation))
		return ErrStaleResult
	}
	p.inflight = false
	if err != nil {
		p.status = StatusError
		p.err = fmt.Errorf("activity: fetch %s page: %w", kind, err)
		p.logger.Warn("fetch activity page", slog.String("kind", kind), slog.Any("error", err))
		return p.err
	}
	if t.continuation {
		p.entries = append(p.entries, page.Entries...)
	} else {
		p.entries = cloneEntries(page.Entries)
	}
	if n := len(page.Entries); n > 0 {
		p.cursor = CursorAfter(page.Entries[n-1])
	}
	p.hasMore = len(page.Entries) == p.composer.PageSize()
	p.status = StatusLoaded
	p.err = nil
	return nil
}

func cloneEntries(src []LogEntry) []LogEntry {
	if src == nil {
		return nil
	}
	dst := make([]LogEntry, len(src))
	copy(dst, src)
	return dst
}

func cloneCursor(c *Cursor) *Cursor {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
