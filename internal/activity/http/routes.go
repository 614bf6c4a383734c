package activityhttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/desa-digital/panel-desa/internal/platform/httpx"
	"github.com/desa-digital/panel-desa/internal/shared"
)

const rateLimit = 10
const rateWindow = time.Minute

// MountRoutes mendaftarkan endpoint log aktivitas, browser per sesi, dan ekspor CSV.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.cfg.ExportRateLimit, h.cfg.ExportRateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.RespondError(w, httpx.ErrTooManyRequests)
		}),
	)
	r.Group(func(gr chi.Router) {
		if h.guard != nil {
			gr.Use(h.guard.RequireAny(shared.PermActivityView))
		}
		gr.Get("/taxonomy", h.handleTaxonomy)
		gr.Get("/logs", h.handleLogs)
		gr.Get("/summary", h.handleSummary)
		gr.Get("/digests/{day}", h.handleDigest)

		gr.Get("/browser", h.handleBrowser)
		gr.Post("/browser/filter", h.handleBrowserFilter)
		gr.Post("/browser/more", h.handleBrowserMore)
		gr.Post("/browser/refresh", h.handleBrowserRefresh)
		gr.Get("/browser/entries/{id}", h.handleBrowserEntry)

		gr.Group(func(er chi.Router) {
			if h.guard != nil {
				er.Use(h.guard.RequireAny(shared.PermActivityExport))
			}
			er.Use(limiter)
			er.Get("/export.csv", h.handleExport)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if user := strings.TrimSpace(sess.User()); user != "" {
			return "user:" + user, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
