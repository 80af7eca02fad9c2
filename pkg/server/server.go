// Package server serves the project API, the documentation pages, and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Sriram-PR/doc-site/pkg/config"
	"github.com/Sriram-PR/doc-site/pkg/importer"
	"github.com/Sriram-PR/doc-site/pkg/jobs"
	"github.com/Sriram-PR/doc-site/pkg/metrics"
	"github.com/Sriram-PR/doc-site/pkg/project"
	"github.com/Sriram-PR/doc-site/pkg/search"
	"github.com/Sriram-PR/doc-site/pkg/storage"
)

// Deps are the collaborators of a Server. Importer, Jobs, Store, and
// MetricsHandler are optional; the routes that need them answer 503 without.
type Deps struct {
	Config         config.ServerConfig
	Projects       *project.Service
	Index          *search.Index
	Importer       *importer.Importer
	Jobs           *jobs.Manager
	Store          storage.StoreAdmin
	GCInterval     time.Duration
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
	Log            *logrus.Entry
}

// Server is the HTTP front end
type Server struct {
	cfg            config.ServerConfig
	projects       *project.Service
	index          *search.Index
	importer       *importer.Importer
	jobs           *jobs.Manager
	store          storage.StoreAdmin
	gcInterval     time.Duration
	metrics        metrics.Recorder
	metricsHandler http.Handler
	log            *logrus.Entry
	pages          *pageRenderer
}

// New creates a Server from d
func New(d Deps) (*Server, error) {
	if d.Projects == nil || d.Index == nil {
		return nil, errors.New("server requires a project service and a search index")
	}
	if d.Log == nil {
		d.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	pages, err := newPageRenderer(d.Config.SiteTitle)
	if err != nil {
		return nil, fmt.Errorf("parsing page templates: %w", err)
	}
	return &Server{
		cfg:            d.Config,
		projects:       d.Projects,
		index:          d.Index,
		importer:       d.Importer,
		jobs:           d.Jobs,
		store:          d.Store,
		gcInterval:     d.GCInterval,
		metrics:        metrics.OrNoop(d.Metrics),
		metricsHandler: d.MetricsHandler,
		log:            d.Log,
		pages:          pages,
	}, nil
}

// Handler returns the routed handler wrapped in logging and recovery
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/projects/{slug}", s.handleGetProject)
	mux.HandleFunc("PUT /api/projects/{slug}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/projects/{slug}", s.handleDeleteProject)
	mux.HandleFunc("GET /api/projects/{slug}/outline", s.handleOutline)
	mux.HandleFunc("GET /api/projects/{slug}/lint", s.handleLint)
	mux.HandleFunc("POST /api/generate-docs", s.handleGenerateDocs)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /api/jobs/{id}/cancel", s.handleCancelJob)

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusFound)
	})
	mux.HandleFunc("GET /docs", s.handleDocsIndex)
	mux.HandleFunc("GET /docs/search", s.handleDocsSearch)
	mux.HandleFunc("GET /docs/{slug}", s.handleDocsPage)
	mux.HandleFunc("GET /docs/{slug}/export", s.handleExport)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}

	return chain(s.log, s.metrics, mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully. Badger
// garbage collection runs alongside when a store is configured.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Infof("HTTP server listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("Shutting down HTTP server...")
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if s.jobs != nil {
			if jobErr := s.jobs.Shutdown(shutdownCtx); jobErr != nil {
				s.log.Warnf("Import jobs did not stop in time: %v", jobErr)
			}
		}
		if err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if s.store != nil {
		g.Go(func() error {
			s.store.RunGC(gctx, s.gcInterval)
			return nil
		})
	}

	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{"status": "ok"}
	if s.store != nil {
		count, err := s.store.CountProjects()
		if err != nil {
			s.fail(w, r, err, "Storage unavailable", "Storage unavailable")
			return
		}
		health["projects"] = count
	}
	writeJSON(w, http.StatusOK, health)
}
