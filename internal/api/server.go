package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dgallion1/snapedit/internal/config"
	"github.com/dgallion1/snapedit/internal/coursestore"
	"github.com/dgallion1/snapedit/internal/fragment"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the development backend: the course editing API over an
// in-memory course.
type Server struct {
	router   chi.Router
	store    *coursestore.Store
	renderer *fragment.Renderer
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(store *coursestore.Store, renderer *fragment.Renderer, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store:    store,
		renderer: renderer,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(EditLogger(s.cfg.Course.ID, s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(SessionKeyAuth(s.cfg.SessKey, s.log))

		r.Get("/api/fragments/section", s.handleSectionFragment)

		r.Route("/api/courses/{courseID}", func(r chi.Router) {
			r.Use(s.courseOnly)
			r.Get("/page", s.handlePage)
			r.Get("/chapters", s.handleChapters)
			r.Post("/move", s.handleMove)
			r.Post("/modules/{cmid}/{action}", s.handleEditModule)
			r.Post("/sections/{section}/{action}", s.handleSectionAction)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// courseOnly rejects requests for any course but the one being served.
func (s *Server) courseOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "courseID"))
		if err != nil || id != s.cfg.Course.ID {
			jsonError(w, "course not found", http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
