package activity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyPrefix  = "activity:page:"
	cacheVersionKey = "activity:page:version"

	sharedFetchTimeout = 30 * time.Second
)

// CachedStore menyimpan halaman pertama di Redis. Halaman lanjutan selalu
// diteruskan ke repository. Append menaikkan versi sehingga seluruh cache
// lama tidak terbaca lagi.
type CachedStore struct {
	next    Repository
	client  *redis.Client
	ttl     time.Duration
	metrics *Metrics
	logger  *slog.Logger
	group   singleflight.Group
}

// NewCachedStore membungkus repository dengan cache Redis. TTL <= 0 atau
// client nil menonaktifkan cache.
func NewCachedStore(next Repository, client *redis.Client, ttl time.Duration, metrics *Metrics, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{next: next, client: client, ttl: ttl, metrics: metrics, logger: logger}
}

type cachedPage struct {
	Entries []LogEntry `json:"entries"`
}

// Query melayani halaman pertama dari cache bila tersedia.
func (s *CachedStore) Query(ctx context.Context, q Query) (Page, error) {
	if q.After != nil || s.client == nil || s.ttl <= 0 {
		return s.next.Query(ctx, q)
	}
	key, err := s.pageKey(ctx, q)
	if err != nil {
		s.logger.Warn("activity cache key", slog.Any("error", err))
		return s.next.Query(ctx, q)
	}
	if page, ok := s.lookup(ctx, key, q.Limit); ok {
		s.metrics.observeCache(true)
		return page, nil
	}
	s.metrics.observeCache(false)

	ch := s.group.DoChan(key, func() (any, error) {
		// Pemanggil lain bisa ikut menunggu kunci yang sama, jadi pembatalan
		// pemanggil pertama tidak boleh menggagalkan fetch bersama.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		page, err := s.next.Query(fetchCtx, q)
		if err != nil {
			return Page{}, err
		}
		s.store(fetchCtx, key, page)
		return page, nil
	})
	select {
	case <-ctx.Done():
		return Page{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Page{}, res.Err
		}
		page := res.Val.(Page)
		return Page{Entries: cloneEntries(page.Entries), Next: cloneCursor(page.Next)}, nil
	}
}

// Append menulis ke repository lalu menginvalidasi cache.
func (s *CachedStore) Append(ctx context.Context, entry NewEntry) (LogEntry, error) {
	saved, err := s.next.Append(ctx, entry)
	if err != nil {
		return LogEntry{}, err
	}
	s.Invalidate(ctx)
	return saved, nil
}

// Summary diteruskan tanpa cache.
func (s *CachedStore) Summary(ctx context.Context, preds []Predicate) (Summary, error) {
	return s.next.Summary(ctx, preds)
}

// Invalidate menaikkan versi cache.
func (s *CachedStore) Invalidate(ctx context.Context) {
	if s.client == nil {
		return
	}
	if err := s.client.Incr(ctx, cacheVersionKey).Err(); err != nil {
		s.logger.Warn("activity cache invalidate", slog.Any("error", err))
	}
}

func (s *CachedStore) pageKey(ctx context.Context, q Query) (string, error) {
	version, err := s.client.Get(ctx, cacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("activity: cache version: %w", err)
	}
	fingerprint, err := json.Marshal(struct {
		Predicates []Predicate `json:"p"`
		Limit      int         `json:"l"`
	}{q.Predicates, q.Limit})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(fingerprint)
	return cacheKeyPrefix + strconv.FormatInt(version, 10) + ":" + hex.EncodeToString(sum[:]), nil
}

func (s *CachedStore) lookup(ctx context.Context, key string, limit int) (Page, bool) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("activity cache get", slog.Any("error", err))
		}
		return Page{}, false
	}
	var cached cachedPage
	if err := json.Unmarshal(raw, &cached); err != nil {
		s.logger.Warn("activity cache decode", slog.Any("error", err))
		return Page{}, false
	}
	page := Page{Entries: cached.Entries}
	if n := len(cached.Entries); n > 0 && n == limit {
		page.Next = CursorAfter(cached.Entries[n-1])
	}
	return page, true
}

func (s *CachedStore) store(ctx context.Context, key string, page Page) {
	raw, err := json.Marshal(cachedPage{Entries: page.Entries})
	if err != nil {
		s.logger.Warn("activity cache encode", slog.Any("error", err))
		return
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("activity cache set", slog.Any("error", err))
	}
}
