package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/soundmap"
)

// Service is the sound lifecycle the handlers drive.
type Service interface {
	Create(ctx context.Context, in soundmap.CreateSound, content io.Reader) (soundmap.Sound, error)
	ListPublic(ctx context.Context) ([]soundmap.Sound, error)
	ListAll(ctx context.Context) ([]soundmap.Sound, error)
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	Delete(ctx context.Context, id int64) error
}

// MediaSource opens stored blobs for GET /media/{name}.
type MediaSource interface {
	Get(ctx context.Context, name string) (io.ReadSeekCloser, error)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	Verifier      TokenVerifier
	AdminScope    string // default: delete:sounds
	CreateScope   string // default: create:sounds
	MaxUploadSize int64  // bytes, 0 = unlimited
	CORS          CORSConfig
	RateLimit     RateLimitConfig
	Media         MediaSource   // nil disables GET /media/{name}
	Health        HealthChecker // nil reports healthy
}

const (
	DefaultAdminScope  = "delete:sounds"
	DefaultCreateScope = "create:sounds"

	multipartMemory = 32 << 20
)

// Handler provides the HTTP surface of the sound map.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.AdminScope == "" {
		cfg.AdminScope = DefaultAdminScope
	}
	if cfg.CreateScope == "" {
		cfg.CreateScope = DefaultCreateScope
	}
	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler with the admission pipeline and routes.
//
// Pipeline order: panic recovery, real client IP, request id, request
// logging, no-cache headers, CORS, rate limiting, then the auth gate on
// protected routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.NoCache)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	if rl := h.config.RateLimit; rl.Enabled && rl.Requests > 0 && rl.Window > 0 {
		r.Use(NewRateLimiter(rl.Requests, rl.Window).Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, MsgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	})

	r.Get("/healthz", h.handleHealth)
	r.Get("/sound-list", h.handleListPublic)

	if h.config.Media != nil {
		r.Get("/media/{name}", h.handleMedia)
	}

	r.Group(func(r chi.Router) {
		r.Use(ValidateCredential(h.config.Verifier))

		r.With(RequireScopes(h.config.AdminScope)).Get("/full-sound-list", h.handleListAll)
		r.With(RequireScopes(h.config.AdminScope)).Post("/sound-status", h.handleSetStatus)
		r.With(RequireScopes(h.config.AdminScope)).Post("/delete-sound", h.handleDelete)
		r.With(RequireScopes(h.config.CreateScope)).Post("/sound", h.handleCreate)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.config.Health != nil {
		if err := h.config.Health.Ping(r.Context()); err != nil {
			slog.Warn("health check failed", "error", err)
			WriteError(w, http.StatusServiceUnavailable, MsgServiceUnavailable)
			return
		}
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListPublic(w http.ResponseWriter, r *http.Request) {
	sounds, err := h.service.ListPublic(r.Context())
	if err != nil {
		HandleError(w, err, MsgListFailed)
		return
	}

	writeSounds(w, sounds)
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	sounds, err := h.service.ListAll(r.Context())
	if err != nil {
		HandleError(w, err, MsgListFailed)
		return
	}

	writeSounds(w, sounds)
}

func writeSounds(w http.ResponseWriter, sounds []soundmap.Sound) {
	if sounds == nil {
		sounds = []soundmap.Sound{}
	}
	_ = WriteJSON(w, http.StatusOK, sounds)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r)
	if !ok {
		return
	}

	enabled, err := strconv.ParseBool(strings.TrimSpace(r.FormValue("enabled")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid enabled value")
		return
	}

	if err := h.service.SetEnabled(r.Context(), id, enabled); err != nil {
		HandleError(w, err, MsgUpdateFailed)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleError(w, err, MsgDeleteFailed)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// formID reads the "id" field of a urlencoded or multipart body.
func formID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.FormValue("id"))
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "Missing id")
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}

	return id, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if limit := h.config.MaxUploadSize; limit > 0 {
		if r.ContentLength > limit {
			HandleError(w, fmt.Errorf("create sound: content length %d: %w", r.ContentLength, ErrUploadTooLarge), "")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			HandleError(w, fmt.Errorf("create sound: %w: %w", ErrUploadTooLarge, err), "")
			return
		}
		WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	lat, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("lat")), 64)
	if err != nil || !soundmap.IsValidCoordinate(lat, 0) {
		WriteError(w, http.StatusBadRequest, "Invalid lat: must be a number between -90 and 90")
		return
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("lng")), 64)
	if err != nil || !soundmap.IsValidCoordinate(0, lng) {
		WriteError(w, http.StatusBadRequest, "Invalid lng: must be a number between -180 and 180")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer func() { _ = file.Close() }()

	in := soundmap.CreateSound{
		Latitude:    lat,
		Longitude:   lng,
		Description: strings.TrimSpace(r.FormValue("description")),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}

	sound, err := h.service.Create(r.Context(), in, file)
	if err != nil {
		HandleError(w, err, MsgSaveFailed)
		return
	}

	_ = WriteJSON(w, http.StatusOK, sound)
}

func (h *Handler) handleMedia(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !soundmap.IsValidBlobName(name) {
		WriteError(w, http.StatusNotFound, MsgNotFound)
		return
	}

	content, err := h.config.Media.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, soundmap.ErrNotFound) {
			WriteError(w, http.StatusNotFound, MsgNotFound)
		} else {
			HandleError(w, err, "")
		}
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", soundmap.ContentTypeFor(name))
	http.ServeContent(w, r, name, time.Time{}, content)
}
