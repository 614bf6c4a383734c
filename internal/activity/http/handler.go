package activityhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/desa-digital/panel-desa/internal/activity"
	"github.com/desa-digital/panel-desa/internal/platform/httpx"
	"github.com/desa-digital/panel-desa/internal/shared"
	"github.com/desa-digital/panel-desa/jobs"
)

const (
	defaultExportMaxRows = 5000
	loadFailedMessage    = "Gagal memuat log aktivitas. Silakan coba lagi."
)

// ActivityService adalah kontrak service log aktivitas yang dipakai handler.
type ActivityService interface {
	Page(ctx context.Context, filter activity.FilterState, cursorToken string) (activity.Page, error)
	Export(ctx context.Context, filter activity.FilterState, maxRows int) ([]activity.LogEntry, error)
	Summary(ctx context.Context, filter activity.FilterState) (activity.Summary, error)
	Composer() *activity.Composer
}

// DigestReader membaca ringkasan harian yang disimpan job digest.
type DigestReader interface {
	Load(ctx context.Context, day string) (jobs.Digest, bool, error)
}

// Guard memasang pemeriksaan izin pada route.
type Guard interface {
	RequireAny(perms ...string) func(http.Handler) http.Handler
}

// Config mengatur batas ekspor.
type Config struct {
	ExportMaxRows    int
	ExportRateLimit  int
	ExportRateWindow time.Duration
}

// Handler menangani endpoint log aktivitas.
type Handler struct {
	logger   *slog.Logger
	service  ActivityService
	browsers *BrowserRegistry
	digests  DigestReader
	guard    Guard
	validate *validator.Validate
	cfg      Config
	now      func() time.Time
}

// NewHandler membuat handler log aktivitas. digests dan guard boleh nil.
func NewHandler(logger *slog.Logger, service ActivityService, browsers *BrowserRegistry, digests DigestReader, guard Guard, cfg Config) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ExportMaxRows <= 0 {
		cfg.ExportMaxRows = defaultExportMaxRows
	}
	if cfg.ExportRateLimit <= 0 {
		cfg.ExportRateLimit = rateLimit
	}
	if cfg.ExportRateWindow <= 0 {
		cfg.ExportRateWindow = rateWindow
	}
	return &Handler{
		logger:   logger,
		service:  service,
		browsers: browsers,
		digests:  digests,
		guard:    guard,
		validate: validator.New(),
		cfg:      cfg,
		now:      time.Now,
	}
}

type filterInput struct {
	Category   string `validate:"omitempty,max=16,alpha"`
	EntityType string `validate:"omitempty,max=32"`
	ActorID    string `validate:"max=128"`
	DateFrom   string `validate:"omitempty,datetime=2006-01-02"`
	DateTo     string `validate:"omitempty,datetime=2006-01-02"`
	Search     string `validate:"max=200"`
}

func (in filterInput) filter() activity.FilterState {
	return activity.FilterState{
		Category:   activity.Category(in.Category),
		EntityType: activity.EntityType(in.EntityType),
		ActorID:    in.ActorID,
		DateFrom:   in.DateFrom,
		DateTo:     in.DateTo,
		Search:     in.Search,
	}.Normalize()
}

type filterPatchRequest struct {
	Category   *string `json:"category"`
	EntityType *string `json:"entity_type"`
	ActorID    *string `json:"actor_id"`
	DateFrom   *string `json:"date_from"`
	DateTo     *string `json:"date_to"`
	Search     *string `json:"search"`
}

func (req filterPatchRequest) input() filterInput {
	return filterInput{
		Category:   deref(req.Category),
		EntityType: deref(req.EntityType),
		ActorID:    deref(req.ActorID),
		DateFrom:   deref(req.DateFrom),
		DateTo:     deref(req.DateTo),
		Search:     deref(req.Search),
	}
}

func (req filterPatchRequest) patch() activity.FilterPatch {
	var p activity.FilterPatch
	if req.Category != nil {
		c := activity.Category(*req.Category)
		p.Category = &c
	}
	if req.EntityType != nil {
		e := activity.EntityType(*req.EntityType)
		p.EntityType = &e
	}
	p.ActorID = req.ActorID
	p.DateFrom = req.DateFrom
	p.DateTo = req.DateTo
	p.Search = req.Search
	return p
}

type pageResponse struct {
	Entries    []activity.LogEntry `json:"entries"`
	NextCursor string              `json:"next_cursor,omitempty"`
	HasMore    bool                `json:"has_more"`
}

type taxonomyResponse struct {
	Categories  []activity.TaxonomyOption `json:"categories"`
	EntityTypes []activity.TaxonomyOption `json:"entity_types"`
}

type summaryResponse struct {
	Filter  activity.FilterState `json:"filter"`
	Summary activity.Summary     `json:"summary"`
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	if err := h.validate.Var(cursor, "max=512"); err != nil {
		httpx.ValidationProblem(w, map[string]string{"cursor": "cursor tidak valid"})
		return
	}
	page, err := h.service.Page(r.Context(), filter, cursor)
	if err != nil {
		h.respondError(w, "load activity page", err)
		return
	}
	resp := pageResponse{
		Entries: activity.Search(page.Entries, filter.Search),
		HasMore: page.Next != nil,
	}
	if resp.Entries == nil {
		resp.Entries = []activity.LogEntry{}
	}
	if page.Next != nil {
		resp.NextCursor = page.Next.Encode()
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, taxonomyResponse{
		Categories:  activity.CategoryOptions(),
		EntityTypes: activity.EntityOptions(),
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		h.respondError(w, "load activity summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summaryResponse{Filter: filter.QueryPart(), Summary: summary})
}

func (h *Handler) handleDigest(w http.ResponseWriter, r *http.Request) {
	if h.digests == nil {
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	day := chi.URLParam(r, "day")
	if err := h.validate.Var(day, "required,datetime=2006-01-02"); err != nil {
		httpx.ValidationProblem(w, map[string]string{"day": "format tanggal harus 2006-01-02"})
		return
	}
	digest, ok, err := h.digests.Load(r.Context(), day)
	if err != nil {
		h.respondError(w, "load activity digest", err)
		return
	}
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "ringkasan untuk "+day+" belum tersedia")
		return
	}
	httpx.JSON(w, http.StatusOK, digest)
}

func (h *Handler) handleBrowser(w http.ResponseWriter, r *http.Request) {
	pager, ok := h.pager(w, r)
	if !ok {
		return
	}
	err := pager.EnsureLoaded(r.Context())
	h.respondView(w, "load activity browser", pager, err)
}

func (h *Handler) handleBrowserFilter(w http.ResponseWriter, r *http.Request) {
	pager, ok := h.pager(w, r)
	if !ok {
		return
	}
	var req filterPatchRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req.input()); err != nil {
		httpx.ValidationProblem(w, httpx.FieldErrors(err))
		return
	}
	err := pager.SetFilter(r.Context(), req.patch())
	h.respondView(w, "apply activity filter", pager, err)
}

func (h *Handler) handleBrowserMore(w http.ResponseWriter, r *http.Request) {
	pager, ok := h.pager(w, r)
	if !ok {
		return
	}
	err := pager.LoadMore(r.Context())
	h.respondView(w, "load more activity", pager, err)
}

func (h *Handler) handleBrowserRefresh(w http.ResponseWriter, r *http.Request) {
	pager, ok := h.pager(w, r)
	if !ok {
		return
	}
	err := pager.Refresh(r.Context())
	h.respondView(w, "refresh activity", pager, err)
}

func (h *Handler) handleBrowserEntry(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || h.browsers == nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	pager, ok := h.browsers.Lookup(sess.ID)
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "log aktivitas belum dimuat")
		return
	}
	entry, ok := pager.SelectEntry(chi.URLParam(r, "id"))
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "entri tidak ada di halaman yang dimuat")
		return
	}
	httpx.JSON(w, http.StatusOK, activity.Inspect(entry, h.location()))
}

func (h *Handler) pager(w http.ResponseWriter, r *http.Request) (*activity.Pager, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return nil, false
	}
	if h.browsers == nil {
		httpx.RespondError(w, httpx.ErrUnavailable)
		return nil, false
	}
	return h.browsers.Get(sess.ID), true
}

// respondView menulis View terbaru. Hasil basi tetap dijawab dengan keadaan
// saat ini; kegagalan store tampil sebagai status error tanpa detail internal.
func (h *Handler) respondView(w http.ResponseWriter, op string, pager *activity.Pager, err error) {
	if err != nil && !errors.Is(err, activity.ErrStaleResult) {
		if isFilterError(err) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error(op, slog.Any("error", err))
	}
	view := pager.View()
	if view.Err != nil && !isFilterError(view.Err) {
		view.Error = loadFailedMessage
	}
	if view.Rows == nil {
		view.Rows = []activity.Row{}
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (activity.FilterState, bool) {
	q := r.URL.Query()
	in := filterInput{
		Category:   strings.TrimSpace(q.Get("category")),
		EntityType: strings.TrimSpace(q.Get("entity_type")),
		ActorID:    strings.TrimSpace(q.Get("actor_id")),
		DateFrom:   strings.TrimSpace(q.Get("from")),
		DateTo:     strings.TrimSpace(q.Get("to")),
		Search:     strings.TrimSpace(q.Get("search")),
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.ValidationProblem(w, httpx.FieldErrors(err))
		return activity.FilterState{}, false
	}
	return in.filter(), true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if isFilterError(err) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *Handler) location() *time.Location {
	if h.service == nil {
		return time.Local
	}
	return h.service.Composer().Location()
}

func isFilterError(err error) bool {
	return errors.Is(err, activity.ErrInvalidFilter) || errors.Is(err, activity.ErrInvalidCursor)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
