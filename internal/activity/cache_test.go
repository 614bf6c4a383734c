package activity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newCachedStore(t *testing.T, store *memStore) (*CachedStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedStore(store, client, time.Minute, NewMetrics(prometheus.NewRegistry()), nil), mr
}

func TestCachedStoreServesFirstPageFromRedis(t *testing.T) {
	store := newMemStore(seqEntries(25, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))...)
	cached, _ := newCachedStore(t, store)
	ctx := context.Background()
	q, err := NewComposer(10, time.UTC).Compose(DefaultFilter(), nil)
	require.NoError(t, err)

	first, err := cached.Query(ctx, q)
	require.NoError(t, err)
	second, err := cached.Query(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 1, store.queryCount())
	require.Equal(t, ids(first.Entries), ids(second.Entries))
	require.NotNil(t, second.Next)
	require.Equal(t, first.Next.ID, second.Next.ID)
	require.True(t, first.Entries[0].Timestamp.Equal(second.Entries[0].Timestamp))

	// continuation pages bypass the cache
	q.After = second.Next
	_, err = cached.Query(ctx, q)
	require.NoError(t, err)
	_, err = cached.Query(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 3, store.queryCount())
}

func TestCachedStoreAppendInvalidates(t *testing.T) {
	store := newMemStore(seqEntries(3, time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC))...)
	cached, mr := newCachedStore(t, store)
	ctx := context.Background()
	q, err := NewComposer(10, time.UTC).Compose(DefaultFilter(), nil)
	require.NoError(t, err)

	page, err := cached.Query(ctx, q)
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)

	saved, err := cached.Append(ctx, NewEntry{ActorID: "kades", Category: CategoryLogin, EntityType: EntityAdmin, Description: "Masuk"})
	require.NoError(t, err)
	version, err := mr.Get(cacheVersionKey)
	require.NoError(t, err)
	require.Equal(t, "1", version)

	page, err = cached.Query(ctx, q)
	require.NoError(t, err)
	require.Len(t, page.Entries, 4)
	require.Equal(t, saved.ID, page.Entries[0].ID)
	require.Equal(t, 2, store.queryCount())
}

func TestCachedStoreFallsBackWhenRedisDown(t *testing.T) {
	store := newMemStore(seqEntries(3, time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC))...)
	cached, mr := newCachedStore(t, store)
	mr.Close()
	q, err := NewComposer(10, time.UTC).Compose(DefaultFilter(), nil)
	require.NoError(t, err)

	page, err := cached.Query(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
}

func TestCachedStoreDisabled(t *testing.T) {
	store := newMemStore(seqEntries(3, time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC))...)
	cached := NewCachedStore(store, nil, time.Minute, nil, nil)
	q, err := NewComposer(10, time.UTC).Compose(DefaultFilter(), nil)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := cached.Query(context.Background(), q)
		require.NoError(t, err)
	}
	require.Equal(t, 2, store.queryCount())
}

// slowStore holds every Query until release is closed and honours ctx.
type slowStore struct {
	*memStore
	started chan struct{}
	release chan struct{}
}

func (s *slowStore) Query(ctx context.Context, q Query) (Page, error) {
	select {
	case s.started <- struct{}{}:
	default:
	}
	select {
	case <-ctx.Done():
		return Page{}, ctx.Err()
	case <-s.release:
	}
	return s.memStore.Query(ctx, q)
}

func TestCachedStoreSharedFetchSurvivesCanceledCaller(t *testing.T) {
	store := &slowStore{
		memStore: newMemStore(seqEntries(5, time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC))...),
		started:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cached := NewCachedStore(store, client, time.Minute, nil, nil)
	q, err := NewComposer(10, time.UTC).Compose(DefaultFilter(), nil)
	require.NoError(t, err)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cached.Query(firstCtx, q)
		firstErr <- err
	}()
	<-store.started

	type result struct {
		page Page
		err  error
	}
	second := make(chan result, 1)
	go func() {
		page, err := cached.Query(context.Background(), q)
		second <- result{page, err}
	}()

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	time.Sleep(50 * time.Millisecond)
	close(store.release)

	got := <-second
	require.NoError(t, got.err)
	require.Len(t, got.page.Entries, 5)
	require.Equal(t, 1, store.queryCount())
}
