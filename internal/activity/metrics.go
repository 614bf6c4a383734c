package activity

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mengekspos collector Prometheus untuk jalur baca log aktivitas.
type Metrics struct {
	fetches  *prometheus.CounterVec
	stale    prometheus.Counter
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
	records  *prometheus.CounterVec
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// NewMetrics mendaftarkan collector ke registerer. Registerer nil memakai
// registerer default Prometheus sekali saja.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultMetricsOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paneldesa_activity_fetch_total",
		Help: "Jumlah fetch halaman log aktivitas berdasarkan jenis dan status.",
	}, []string{"kind", "status"})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "paneldesa_activity_fetch_stale_total",
		Help: "Jumlah hasil fetch yang dibuang karena filter sudah berubah.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paneldesa_activity_fetch_duration_seconds",
		Help:    "Durasi fetch halaman log aktivitas.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paneldesa_activity_cache_total",
		Help: "Hasil lookup cache halaman pertama log aktivitas.",
	}, []string{"result"})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paneldesa_activity_records_total",
		Help: "Jumlah entri log aktivitas yang ditulis per kategori.",
	}, []string{"category"})
	registerer.MustRegister(fetches, stale, duration, cache, records)
	return &Metrics{fetches: fetches, stale: stale, duration: duration, cache: cache, records: records}
}

func (m *Metrics) observeFetch(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.fetches.WithLabelValues(kind, status).Inc()
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeStale() {
	if m == nil {
		return
	}
	m.stale.Inc()
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

func (m *Metrics) observeRecord(c Category) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(string(c)).Inc()
}
