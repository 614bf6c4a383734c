package activity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var pagerNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestPager(store Store) *Pager {
	return NewPager(store, NewComposer(20, time.UTC), WithClock(func() time.Time { return pagerNow }))
}

// gatedStore blocks the next Query after arm until release is closed.
type gatedStore struct {
	*memStore
	mu      sync.Mutex
	armed   bool
	started chan struct{}
	release chan struct{}
}

func (g *gatedStore) arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = true
	g.started = make(chan struct{})
	g.release = make(chan struct{})
}

func (g *gatedStore) Query(ctx context.Context, q Query) (Page, error) {
	g.mu.Lock()
	wait := g.armed
	g.armed = false
	started, release := g.started, g.release
	g.mu.Unlock()
	if wait {
		close(started)
		<-release
	}
	return g.memStore.Query(ctx, q)
}

func TestPagerFirstPageThenLoadMore(t *testing.T) {
	store := newMemStore(seqEntries(27, pagerNow)...)
	p := newTestPager(store)
	ctx := context.Background()

	// first page of 20 leaves more to load
	require.NoError(t, p.EnsureLoaded(ctx))
	state := p.State()
	require.Len(t, state.Entries, 20)
	require.True(t, state.HasMore)
	require.NotNil(t, state.Cursor)
	require.Equal(t, state.Entries[19].ID, state.Cursor.ID)
	require.Equal(t, StatusLoaded, p.View().Status)

	// short second page ends the scan
	require.NoError(t, p.LoadMore(ctx))
	state = p.State()
	require.Len(t, state.Entries, 27)
	require.False(t, state.HasMore)
	for i := 1; i < len(state.Entries); i++ {
		require.True(t, entryBefore(state.Entries[i-1], state.Entries[i]))
	}
	require.Equal(t, 2, store.queryCount())

	require.NoError(t, p.LoadMore(ctx))
	require.Equal(t, 2, store.queryCount())
}

func TestPagerFilterChangeResetsAndRefetches(t *testing.T) {
	entries := seqEntries(27, pagerNow)
	store := newMemStore(entries...)
	p := newTestPager(store)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))
	require.NoError(t, p.LoadMore(ctx))
	require.Len(t, p.State().Entries, 27)

	galeri := EntityGallery
	require.NoError(t, p.SetFilter(ctx, FilterPatch{EntityType: &galeri}))
	q := store.lastQuery()
	require.Nil(t, q.After)
	require.Equal(t, []Predicate{{Field: FieldEntityType, Op: OpEq, Value: "galeri"}}, q.Predicates)
	for _, e := range p.State().Entries {
		require.Equal(t, EntityGallery, e.EntityType)
	}
	require.False(t, p.State().HasMore)
}

func TestPagerResetClearsBeforeFetch(t *testing.T) {
	store := &gatedStore{memStore: newMemStore(seqEntries(25, pagerNow)...)}
	p := newTestPager(store)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))
	require.Len(t, p.State().Entries, 20)

	store.arm()
	done := make(chan error, 1)
	cat := CategoryUpdate
	go func() { done <- p.SetFilter(ctx, FilterPatch{Category: &cat}) }()
	<-store.started

	state := p.State()
	require.Empty(t, state.Entries)
	require.Nil(t, state.Cursor)
	require.False(t, state.HasMore)
	view := p.View()
	require.True(t, view.IsLoading)
	require.False(t, view.CanLoadMore)

	close(store.release)
	require.NoError(t, <-done)
	require.Equal(t, StatusLoaded, p.View().Status)
}

func TestPagerSearchDoesNotFetch(t *testing.T) {
	entries := seqEntries(27, pagerNow)
	for i := range entries {
		if i%7 == 0 {
			entries[i].Description = "Budi mengubah profil desa"
		}
	}
	store := newMemStore(entries...)
	p := newTestPager(store)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))
	require.NoError(t, p.LoadMore(ctx))
	calls := store.queryCount()

	term := "budi"
	require.NoError(t, p.SetFilter(ctx, FilterPatch{Search: &term}))
	require.Equal(t, calls, store.queryCount())

	view := p.View()
	require.Len(t, view.Entries, 4)
	require.Len(t, view.Rows, 4)
	require.Equal(t, 27, view.Stats.TotalLoaded)
	require.Equal(t, 4, view.Stats.DisplayedCount)
	for _, e := range view.Entries {
		require.True(t, strings.Contains(strings.ToLower(e.Description), "budi"))
	}
}

func TestPagerSearchHidesLoadMore(t *testing.T) {
	store := newMemStore(seqEntries(25, pagerNow)...)
	p := newTestPager(store)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))
	require.True(t, p.View().CanLoadMore)

	term := "aksi"
	require.NoError(t, p.SetFilter(ctx, FilterPatch{Search: &term}))
	view := p.View()
	require.True(t, view.HasMore)
	require.False(t, view.CanLoadMore)
}

func TestPagerBlankSearchKeepsLoadMore(t *testing.T) {
	store := newMemStore(seqEntries(25, pagerNow)...)
	p := newTestPager(store)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))

	blank := "   "
	require.NoError(t, p.SetFilter(ctx, FilterPatch{Search: &blank}))
	view := p.View()
	require.Len(t, view.Entries, 20)
	require.True(t, view.HasMore)
	require.True(t, view.CanLoadMore)
	require.Equal(t, 1, store.queryCount())
}

func TestPagerFetchErrorKeepsEntries(t *testing.T) {
	store := newMemStore(seqEntries(25, pagerNow)...)
	p := newTestPager(store)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))

	transport := errors.New("connection reset")
	store.mu.Lock()
	store.err = transport
	store.mu.Unlock()

	err := p.LoadMore(ctx)
	require.ErrorIs(t, err, transport)
	view := p.View()
	require.Len(t, view.Entries, 20)
	require.Equal(t, StatusError, view.Status)
	require.ErrorIs(t, view.Err, transport)
	require.NotEmpty(t, view.Error)
	require.True(t, p.State().HasMore)

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	require.NoError(t, p.LoadMore(ctx))
	require.Len(t, p.State().Entries, 25)
}

func TestPagerLoadMoreWhileInFlightIsNoop(t *testing.T) {
	store := &gatedStore{memStore: newMemStore(seqEntries(45, pagerNow)...)}
	p := newTestPager(store)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))

	store.arm()
	done := make(chan error, 1)
	go func() { done <- p.LoadMore(ctx) }()
	<-store.started

	require.NoError(t, p.LoadMore(ctx))
	require.NoError(t, p.LoadMore(ctx))
	close(store.release)
	require.NoError(t, <-done)

	require.Equal(t, 2, store.queryCount())
	require.Len(t, p.State().Entries, 40)
}

func TestPagerDiscardsStaleResult(t *testing.T) {
	entries := seqEntries(30, pagerNow)
	store := &gatedStore{memStore: newMemStore(entries...)}
	p := newTestPager(store)
	ctx := context.Background()

	store.arm()
	done := make(chan error, 1)
	create := CategoryCreate
	go func() { done <- p.SetFilter(ctx, FilterPatch{Category: &create}) }()
	<-store.started

	del := CategoryDelete
	require.NoError(t, p.SetFilter(ctx, FilterPatch{Category: &del}))
	close(store.release)
	require.ErrorIs(t, <-done, ErrStaleResult)

	state := p.State()
	require.NotEmpty(t, state.Entries)
	for _, e := range state.Entries {
		require.Equal(t, CategoryDelete, e.Category)
	}
	require.Equal(t, CategoryDelete, p.Filter().Category)
	require.Equal(t, StatusLoaded, p.View().Status)
}

func TestPagerInvalidFilterSetsError(t *testing.T) {
	store := newMemStore(seqEntries(5, pagerNow)...)
	p := newTestPager(store)
	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))

	from, to := "2024-05-03", "2024-05-01"
	err := p.SetFilter(ctx, FilterPatch{DateFrom: &from, DateTo: &to})
	require.ErrorIs(t, err, ErrInvalidFilter)
	require.Equal(t, 1, store.queryCount())
	view := p.View()
	require.Equal(t, StatusError, view.Status)
	require.Empty(t, view.Entries)
}

func TestPagerSelectEntry(t *testing.T) {
	store := newMemStore(seqEntries(3, pagerNow)...)
	p := newTestPager(store)
	require.NoError(t, p.Refresh(context.Background()))

	entry, ok := p.SelectEntry("e002")
	require.True(t, ok)
	require.Equal(t, "e002", entry.ID)
	_, ok = p.SelectEntry("missing")
	require.False(t, ok)
}
