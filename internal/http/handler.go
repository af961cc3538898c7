package httpapp

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/logger"
)

// RunReader is the read side of the run store.
type RunReader interface {
	ListRuns(limit int) ([]domain.Run, error)
	GetRun(id string) (*domain.Run, error)
	ListAttempts(runID string) ([]domain.Attempt, error)
}

// DuplicateFinder builds the library index on demand and returns its key
// count and near-duplicate groups.
type DuplicateFinder func(ctx context.Context) (keys int, dupes map[string][]string, err error)

type Handler struct {
	Runs           RunReader
	FindDuplicates DuplicateFinder
	Logger         *logger.Logger
}

func NewHandler(runs RunReader, dupes DuplicateFinder, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Runs:           runs,
		FindDuplicates: dupes,
		Logger:         log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
		r.Get("/duplicates", h.ListDuplicates)
	})
	r.Handle("/metrics", promhttp.Handler())
}

// NewRouter returns the report server's router.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}
