// Package api provides the HTTP control surface over the profile store.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/provdeck-ai/provdeck/internal/auth"
	"github.com/provdeck-ai/provdeck/internal/config"
	"github.com/provdeck-ai/provdeck/internal/eventbus"
	"github.com/provdeck-ai/provdeck/internal/provider"
	"github.com/provdeck-ai/provdeck/internal/store"
)

// Server is the HTTP API server.
type Server struct {
	store        *store.Store
	auth         *auth.Service
	bus          *eventbus.Bus
	logger       *slog.Logger
	mux          *chi.Mux
	startTime    time.Time
	maxBodyBytes int64
	loginRL      *rateLimiter
	rl           *rateLimiter
}

// NewServer wires the API routes over the store.
func NewServer(st *store.Store, authSvc *auth.Service, bus *eventbus.Bus, cfg *config.Config, logger *slog.Logger) *Server {
	srv := &Server{
		store:        st,
		auth:         authSvc,
		bus:          bus,
		logger:       logger.With("component", "api"),
		startTime:    time.Now(),
		maxBodyBytes: cfg.Server.MaxBodyBytes,
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(chimw.RealIP)
	mux.Use(securityHeadersMiddleware)
	mux.Use(makeCORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check (unauthenticated)
	mux.Get("/healthz", srv.handleHealthz)

	srv.loginRL = newRateLimiter(5, 10)
	mux.With(loginIPRateLimitMiddleware(srv.loginRL)).Post("/api/auth/login", srv.handleLogin)

	// WebSocket event stream (auth handled inside)
	mux.Get("/ws/events", srv.handleEvents)

	// Authenticated API routes
	srv.rl = newRateLimiter(cfg.Server.RateLimit.RequestsPerSecond, cfg.Server.RateLimit.Burst)
	mux.Group(func(r chi.Router) {
		r.Use(srv.authMiddleware)
		r.Use(rateLimitMiddleware(srv.rl))

		r.Get("/api/providers", srv.handleListProviders)
		r.Post("/api/providers", srv.handleCreateProvider)
		r.Get("/api/providers/{providerID}", srv.handleGetProvider)
		r.Put("/api/providers/{providerID}", srv.handleUpdateProvider)
		r.Delete("/api/providers/{providerID}", srv.handleDeleteProvider)
		r.Post("/api/providers/{providerID}/activate", srv.handleActivateProvider)
		r.Get("/api/active", srv.handleGetActive)
	})

	srv.mux = mux
	return srv
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// StartBackgroundTasks starts periodic cleanup for the rate limiters.
func (s *Server) StartBackgroundTasks(ctx context.Context) {
	if s.loginRL != nil {
		s.loginRL.StartCleanup(ctx, 5*time.Minute, 10*time.Minute)
	}
	if s.rl != nil {
		s.rl.StartCleanup(ctx, 5*time.Minute, 10*time.Minute)
	}
}

// --- Auth handlers ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		s.logger.Warn("login failed", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.logger.Info("login", "username", req.Username)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// --- Provider handlers ---

// handleListProviders returns display-safe summaries, for one family when
// ?app= is set, otherwise for all families in canonical order.
func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	apps := provider.AppTypes()
	if q := r.URL.Query().Get("app"); q != "" {
		at, err := provider.ParseAppType(q)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		apps = []provider.AppType{at}
	}

	result := make([]provider.Summary, 0)
	for _, at := range apps {
		result = append(result, s.store.Summaries(at)...)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateProvider(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	var req struct {
		AppType    string          `json:"app_type"`
		Name       string          `json:"name"`
		WebsiteURL string          `json:"website_url"`
		Notes      string          `json:"notes"`
		SortIndex  *int            `json:"sort_index"`
		Settings   json.RawMessage `json:"settings_config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	at, err := provider.ParseAppType(req.AppType)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	settings, err := provider.DecodeSettings(at, req.Settings)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := provider.Draft{
		Name:       req.Name,
		WebsiteURL: req.WebsiteURL,
		Notes:      req.Notes,
		Settings:   settings,
	}
	if req.SortIndex != nil {
		d.SortIndex = strconv.Itoa(*req.SortIndex)
	}

	p, err := provider.New(at, d, s.store.IDs(at), time.Now().Unix())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.store.Add(r.Context(), p); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// handleGetProvider returns the full stored profile, settings payload
// included, so a client can render an edit form or export the config.
func (s *Server) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Get(chi.URLParam(r, "providerID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleUpdateProvider applies a partial edit. Absent fields keep their
// stored value; for the string fields an empty value clears, and sort_index
// distinguishes a number (set) from null (clear).
func (s *Server) handleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	var req struct {
		Name       *string         `json:"name"`
		WebsiteURL *string         `json:"website_url"`
		Notes      *string         `json:"notes"`
		SortIndex  json.RawMessage `json:"sort_index"`
		Settings   json.RawMessage `json:"settings_config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.store.Update(r.Context(), chi.URLParam(r, "providerID"),
		func(cur *provider.Provider) (*provider.Provider, error) {
			d := provider.Draft{
				Name:       cur.Name,
				WebsiteURL: cur.WebsiteURL,
				Notes:      cur.Notes,
				Settings:   cur.Settings,
			}
			if cur.SortIndex != nil {
				d.SortIndex = strconv.Itoa(*cur.SortIndex)
			}

			if req.Name != nil {
				d.Name = *req.Name
			}
			if req.WebsiteURL != nil {
				d.WebsiteURL = *req.WebsiteURL
			}
			if req.Notes != nil {
				d.Notes = *req.Notes
			}
			if len(req.SortIndex) > 0 {
				if string(req.SortIndex) == "null" {
					d.SortIndex = ""
				} else {
					var n int
					if err := json.Unmarshal(req.SortIndex, &n); err != nil {
						return nil, fmt.Errorf("%w: sort_index must be a number or null", provider.ErrInvalidInput)
					}
					d.SortIndex = strconv.Itoa(n)
				}
			}
			if len(req.Settings) > 0 {
				settings, err := provider.DecodeSettings(cur.AppType, req.Settings)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", provider.ErrInvalidInput, err)
				}
				d.Settings = settings
			}

			return provider.Merge(cur, d, time.Now().Unix())
		})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProvider(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Remove(r.Context(), chi.URLParam(r, "providerID")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleActivateProvider marks a profile active for its family. The optional
// app_type in the body lets a client assert which family it expects; a
// mismatch is rejected rather than silently activating elsewhere.
func (s *Server) handleActivateProvider(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	providerID := chi.URLParam(r, "providerID")

	var req struct {
		AppType string `json:"app_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var at provider.AppType
	if req.AppType != "" {
		parsed, err := provider.ParseAppType(req.AppType)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		at = parsed
	} else {
		p, err := s.store.Get(providerID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		at = p.AppType
	}

	if err := s.store.SetActive(r.Context(), at, providerID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "activated"})
}

// handleGetActive returns the masked summary of the active profile for ?app=,
// or a JSON null when the family has none. Full payloads stay on the by-id
// endpoint.
func (s *Server) handleGetActive(w http.ResponseWriter, r *http.Request) {
	at, err := provider.ParseAppType(r.URL.Query().Get("app"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	p := s.store.Active(at)
	if p == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	sum := p.Summary()
	sum.Active = true
	writeJSON(w, http.StatusOK, sum)
}

// --- Health handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startTime).Truncate(time.Second).String(),
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps the profile error taxonomy onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, provider.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, provider.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, provider.ErrInvalidInput), errors.Is(err, provider.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, provider.ErrPersistence):
		status = http.StatusInternalServerError
	}
	writeError(w, status, err.Error())
}
