package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/velli/flipscout/internal/comps"
	"github.com/velli/flipscout/internal/imaging"
	"github.com/velli/flipscout/internal/scan"
	"github.com/velli/flipscout/internal/session"
	"github.com/velli/flipscout/internal/storage"
)

// Server holds the handler dependencies.
type Server struct {
	store    *storage.SQLiteStore
	analyzer scan.Analyzer
	comps    comps.Provider
	drafts   *session.Manager
	images   *imaging.Store
}

// NewServer creates the API server.
func NewServer(store *storage.SQLiteStore, analyzer scan.Analyzer, provider comps.Provider, drafts *session.Manager, images *imaging.Store) *Server {
	return &Server{
		store:    store,
		analyzer: analyzer,
		comps:    provider,
		drafts:   drafts,
		images:   images,
	}
}

// Router creates and configures the HTTP router.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(Recovery)
	r.Use(Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.Health)

		r.Post("/scans", s.CreateScan)
		r.Post("/scans/{id}/analyze", s.AnalyzeScan)

		r.Route("/drafts/{id}", func(r chi.Router) {
			r.Patch("/", s.UpdateDraft)
			r.Post("/verdict", s.DraftVerdict)
			r.Post("/save", s.SaveDraft)
			r.Delete("/", s.CancelDraft)
		})

		r.Post("/verdict", s.Verdict)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.ListItems)
			r.Get("/{id}", s.GetItem)
			r.Patch("/{id}", s.UpdateItem)
			r.Post("/{id}/sold", s.MarkSold)
		})

		r.Get("/settings", s.GetSettings)
		r.Put("/settings", s.PutSettings)
	})

	r.Get("/images/{name}", s.ServeImage)
	r.Get("/images/{name}/thumb", s.ServeThumbnail)

	return r
}

// Health handles GET /api/v1/health
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	OK(w, map[string]string{"status": "healthy"})
}

// ServeImage handles GET /images/{name}
func (s *Server) ServeImage(w http.ResponseWriter, r *http.Request) {
	data, err := s.images.Read(chi.URLParam(r, "name"))
	if err != nil {
		Error(w, NotFound("image not found"))
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

// ServeThumbnail handles GET /images/{name}/thumb
func (s *Server) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	data, err := s.images.Thumbnail(chi.URLParam(r, "name"))
	if err != nil {
		Error(w, NotFound("image not found"))
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}
