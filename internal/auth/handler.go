package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/desa-digital/panel-desa/internal/activity"
	"github.com/desa-digital/panel-desa/internal/platform/httpx"
	"github.com/desa-digital/panel-desa/internal/shared"
)

// Authenticator verifies admin credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*Admin, error)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        Authenticator
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	recorder       activity.Recorder
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance. recorder may be nil.
func NewHandler(logger *slog.Logger, service Authenticator, sessions *shared.SessionManager, csrf *shared.CSRFManager, recorder activity.Recorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		recorder:       recorder,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.handleCSRF)
	r.Get("/me", h.handleMe)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionResponse struct {
	ID        string `json:"id"`
	Actor     string `json:"actor"`
	Role      string `json:"role"`
	CSRFToken string `json:"csrf_token,omitempty"`
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfManager.EnsureToken(shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if !sess.Authenticated() {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, sessionResponse{ID: sess.User(), Actor: shared.ActorFromContext(r.Context()), Role: sess.Role()})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, shared.ErrSessionMissing)
		return
	}
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		if fields := httpx.FieldErrors(err); fields != nil {
			httpx.ValidationProblem(w, fields)
			return
		}
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	admin, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Email atau password tidak valid")
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if err := h.sessionManager.Renew(r.Context(), sess); err != nil {
		h.logger.Error("renew session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	sess.Delete(shared.CSRFSessionKey)
	sess.SetUser(strconv.FormatInt(admin.ID, 10), admin.Role)
	sess.Set(shared.SessionActorKey, admin.Email)
	token, _ := h.csrfManager.EnsureToken(sess)

	h.record(r, activity.NewEntry{
		ActorID:     admin.Email,
		Category:    activity.CategoryLogin,
		EntityType:  activity.EntityAdmin,
		EntityID:    strconv.FormatInt(admin.ID, 10),
		Description: admin.Name + " masuk ke panel admin",
		Detail: activity.Detail{
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		},
	})

	httpx.JSON(w, http.StatusOK, sessionResponse{
		ID:        strconv.FormatInt(admin.ID, 10),
		Actor:     admin.Email,
		Role:      admin.Role,
		CSRFToken: token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess.Authenticated() {
		actor := shared.ActorFromContext(r.Context())
		h.record(r, activity.NewEntry{
			ActorID:     actor,
			Category:    activity.CategoryLogout,
			EntityType:  activity.EntityAdmin,
			EntityID:    sess.User(),
			Description: actor + " keluar dari panel admin",
		})
	}
	h.sessionManager.Destroy(sess)
	httpx.NoContent(w)
}

// record never fails the auth flow; a lost audit entry is logged instead.
func (h *Handler) record(r *http.Request, entry activity.NewEntry) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.RecordActivity(r.Context(), entry); err != nil {
		h.logger.Error("record auth activity",
			slog.String("category", string(entry.Category)),
			slog.String("actor_id", entry.ActorID),
			slog.Any("error", err),
		)
	}
}
