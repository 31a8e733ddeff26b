// Package api exposes the pipeline over HTTP: trigger a processing pass,
// inspect the latest batch, download the preview CSV, and apply the actions.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chanmap/chanmap/internal/jobs"
	xlog "github.com/chanmap/chanmap/internal/log"
	"github.com/chanmap/chanmap/internal/store"
	"github.com/chanmap/chanmap/internal/types"
)

// Options configures the HTTP server surface.
type Options struct {
	RateLimitRPS int // per-IP requests per second, 0 disables limiting
}

// Server routes API requests to a Runner. The runner is resolved per request
// so a config reload can swap it without restarting the listener.
type Server struct {
	runner func() *jobs.Runner
	st     *store.Store
	opts   Options

	processing atomic.Bool
}

// New creates a server. runner must never return nil.
func New(runner func() *jobs.Runner, st *store.Store, opts Options) *Server {
	return &Server{runner: runner, st: st, opts: opts}
}

// Router builds the chi router with the canonical middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(requestLogger)
	if s.opts.RateLimitRPS > 0 {
		r.Use(httprate.Limit(s.opts.RateLimitRPS, time.Second, httprate.WithKeyFuncs(httprate.KeyByIP)))
	}

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/process", s.handleProcess)
		r.Get("/status", s.handleStatus)
		r.Get("/changes", s.handleChanges)
		r.Get("/preview.csv", s.handlePreview)
		r.Post("/rename", s.handleRename)
		r.Post("/suffix-unknown", s.handleSuffixUnknown)
		r.Post("/apply-logos", s.handleApplyLogos)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProcess runs one pass. Passes are serialized; a second request while
// one is running gets 409 instead of queuing.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if !s.processing.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "a processing pass is already running")
		return
	}
	defer s.processing.Store(false)

	run, err := s.runner().Process(r.Context())
	if err != nil {
		if errors.Is(err, jobs.ErrNoGroups) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	run, err := s.st.LatestRun(r.Context())
	if errors.Is(err, store.ErrNoRun) {
		writeError(w, http.StatusNotFound, "no processing pass has run yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", types.StatusRenamed, types.StatusSkipped:
	default:
		writeError(w, http.StatusBadRequest, "status must be Renamed or Skipped")
		return
	}

	changes, err := s.st.Changes(r.Context(), status)
	if errors.Is(err, store.ErrNoRun) {
		writeError(w, http.StatusNotFound, "no processing pass has run yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if changes == nil {
		changes = []types.ChangeRecord{}
	}
	writeJSON(w, http.StatusOK, changes)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	data, err := s.runner().PreviewCSV(r.Context())
	if errors.Is(err, store.ErrNoRun) {
		writeError(w, http.StatusNotFound, "no processing pass has run yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="chanmap_preview.csv"`)
	_, _ = w.Write(data)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, "renamed", s.runner().Rename)
}

func (s *Server) handleSuffixUnknown(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, "suffixed", s.runner().SuffixUnknown)
}

func (s *Server) handleApplyLogos(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, "updated", s.runner().ApplyLogos)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, key string, fn func(ctx context.Context) (int, error)) {
	n, err := fn(r.Context())
	if errors.Is(err, store.ErrNoRun) {
		writeError(w, http.StatusConflict, "no processing pass has run yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{key: n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	logger := xlog.WithComponent("api")
	logger.Debug().Int("status", status).Str("error", msg).Msg("request failed")
	writeJSON(w, status, map[string]string{"error": msg})
}
