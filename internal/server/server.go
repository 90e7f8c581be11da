// Package server exposes the portal's HTTP surface: form definitions,
// application submission and listing, region option lookups, and a read-only
// HTML preview of a form.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/components/regions"
	"github.com/goliatone/go-formportal/internal/repo"
	"github.com/goliatone/go-formportal/pkg/applications"
	"github.com/goliatone/go-formportal/pkg/render"
	"github.com/goliatone/go-formportal/pkg/schema"
	"github.com/goliatone/go-formportal/pkg/session"
)

// Option customises server construction.
type Option func(*Server)

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRateLimit caps requests per IP per second. Zero disables the limiter.
func WithRateLimit(perSecond int) Option {
	return func(s *Server) {
		s.rateLimit = perSecond
	}
}

// WithRenderer registers a preview renderer. The first registered renderer
// serves /api/forms/{formID}/preview.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			s.registry.MustRegister(renderer)
		}
	}
}

// WithRegions overrides the built-in country to state mapping.
func WithRegions(data map[string][]string) Option {
	return func(s *Server) {
		s.regions = data
	}
}

// Server holds the portal's HTTP dependencies.
type Server struct {
	log       *zap.Logger
	forms     []schema.FormDefinition
	store     repo.Repo
	registry  *render.Registry
	regions   map[string][]string
	rateLimit int
}

// New constructs a Server for the given form definitions and storage.
func New(forms []schema.FormDefinition, store repo.Repo, opts ...Option) *Server {
	s := &Server{
		log:      zap.NewNop(),
		forms:    forms,
		store:    store,
		registry: render.NewRegistry(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Router builds the chi router with all portal routes mounted.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.rateLimit > 0 {
		r.Use(httprate.LimitByIP(s.rateLimit, time.Second))
	}

	r.Get("/api/forms", s.handleListForms)
	r.Get("/api/forms/{formID}/preview", s.handlePreview)
	r.Post("/api/applications", s.handleSubmit)
	r.Get("/api/applications", s.handleListApplications)

	regionOpts := []regions.OptionFn{}
	if s.regions != nil {
		regionOpts = append(regionOpts, regions.WithRegions(s.regions))
	}
	if _, err := regions.RegisterRoutes(r, "", regionOpts...); err != nil {
		s.log.Error("failed to mount regions component", zap.Error(err))
	}

	return r
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.forms)
}

type submitRequest struct {
	FormID  string         `json:"formId"`
	Answers map[string]any `json:"answers"`
}

type submitResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	form, ok := s.formByID(req.FormID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown form")
		return
	}
	if req.Answers == nil {
		req.Answers = map[string]any{}
	}

	app := applications.Application{
		ID:          uuid.NewString(),
		FormID:      form.FormID,
		Title:       form.Title,
		SubmittedAt: time.Now().UTC(),
		Answers:     req.Answers,
	}
	if err := s.store.InsertApplication(r.Context(), app); err != nil {
		s.log.Error("failed to store application", zap.String("form", form.FormID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to store application")
		return
	}
	s.log.Info("application submitted",
		zap.String("form", form.FormID),
		zap.String("id", app.ID))
	s.writeJSON(w, http.StatusCreated, submitResponse{ID: app.ID})
}

type listResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
	Page    int        `json:"page"`
	Pages   int        `json:"pages"`
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.ListApplications(r.Context())
	if err != nil {
		s.log.Error("failed to list applications", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list applications")
		return
	}

	query := r.URL.Query()
	req := applications.ListRequest{
		SortBy:     query.Get("sort"),
		Descending: query.Get("desc") == "true",
		Page:       intParam(query.Get("page")),
		PageSize:   intParam(query.Get("size")),
	}
	if raw := strings.TrimSpace(query.Get("columns")); raw != "" {
		req.Columns = strings.Split(raw, ",")
	}

	view := applications.BuildListView(apps, req)
	s.writeJSON(w, http.StatusOK, listResponse{
		Columns: view.Columns,
		Rows:    view.Rows,
		Total:   view.Total,
		Page:    view.Page,
		Pages:   view.Pages,
	})
}

// handlePreview renders the initial visible projection of a form. Rules that
// depend on answers collapse to their no-answer state, which is exactly what
// a user sees on first load.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	form, ok := s.formByID(chi.URLParam(r, "formID"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown form")
		return
	}
	renderer, err := s.previewRenderer()
	if err != nil {
		s.writeError(w, http.StatusNotFound, "no preview renderer configured")
		return
	}

	sess := session.New(session.WithLogger(s.log))
	if err := sess.SelectForm(r.Context(), form); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load form")
		return
	}

	out, err := renderer.Render(r.Context(), render.View{
		FormID: form.FormID,
		Title:  form.Title,
		Items:  sess.Render(),
	}, render.RenderOptions{})
	if err != nil {
		s.log.Error("preview failed", zap.String("form", form.FormID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "preview failed")
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) previewRenderer() (render.Renderer, error) {
	names := s.registry.List()
	if len(names) == 0 {
		return nil, errors.New("server: no renderer registered")
	}
	return s.registry.Get(names[0])
}

func (s *Server) formByID(id string) (schema.FormDefinition, bool) {
	for _, form := range s.forms {
		if form.FormID == id {
			return form, true
		}
	}
	return schema.FormDefinition{}, false
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func intParam(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
