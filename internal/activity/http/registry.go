package activityhttp

import (
	"context"
	"sync"
	"time"

	"github.com/desa-digital/panel-desa/internal/activity"
)

const defaultBrowserTTL = 30 * time.Minute

type browserItem struct {
	pager   *activity.Pager
	expires time.Time
}

// BrowserRegistry menyimpan satu Pager per sesi admin. Pager yang tidak
// disentuh selama ttl dibuang.
type BrowserRegistry struct {
	ttl     time.Duration
	factory func() *activity.Pager
	now     func() time.Time

	mu    sync.Mutex
	items map[string]browserItem
}

// NewBrowserRegistry membuat registry; factory dipanggil untuk sesi baru.
func NewBrowserRegistry(ttl time.Duration, factory func() *activity.Pager) *BrowserRegistry {
	if ttl <= 0 {
		ttl = defaultBrowserTTL
	}
	return &BrowserRegistry{
		ttl:     ttl,
		factory: factory,
		now:     time.Now,
		items:   make(map[string]browserItem),
	}
}

// Get mengembalikan Pager milik key, membuat yang baru bila belum ada atau
// sudah kedaluwarsa, dan memperpanjang masa berlakunya.
func (r *BrowserRegistry) Get(key string) *activity.Pager {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[key]
	if !ok || now.After(item.expires) {
		item = browserItem{pager: r.factory()}
	}
	item.expires = now.Add(r.ttl)
	r.items[key] = item
	return item.pager
}

// Lookup mengembalikan Pager tanpa membuat yang baru.
func (r *BrowserRegistry) Lookup(key string) (*activity.Pager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[key]
	if !ok || r.now().After(item.expires) {
		return nil, false
	}
	return item.pager, true
}

// Drop membuang Pager milik key.
func (r *BrowserRegistry) Drop(key string) {
	r.mu.Lock()
	delete(r.items, key)
	r.mu.Unlock()
}

// Len mengembalikan jumlah Pager yang tersimpan.
func (r *BrowserRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep membuang Pager kedaluwarsa dan mengembalikan jumlahnya.
func (r *BrowserRegistry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, item := range r.items {
		if now.After(item.expires) {
			delete(r.items, key)
			removed++
		}
	}
	return removed
}

// Run menjalankan Sweep setiap interval sampai ctx selesai.
func (r *BrowserRegistry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
