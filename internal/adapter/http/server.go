package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/couchcryptid/pier-dxv-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBytes bounds the extraction request body.
const maxRequestBytes = 64 << 10

// Runner executes an extraction job.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job, obs pipeline.Observer) (*pipeline.Report, error)
}

// RunStore reads back stored runs.
type RunStore interface {
	Run(ctx context.Context, id string) (*domain.Run, error)
	Results(ctx context.Context, runID string) ([]domain.PierResult, error)
}

// Defaults fill fields an extraction request leaves empty.
type Defaults struct {
	ScourRun     string
	SearchRadius float64
}

// Server exposes health, readiness, metrics, and extraction HTTP endpoints.
type Server struct {
	httpServer *http.Server
	runner     Runner
	runs       RunStore
	defaults   Defaults
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// POST /v1/extractions routes. GET /v1/runs/{id} is served when runs is not nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, runner Runner, runs RunStore, defaults Defaults, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		runner:   runner,
		runs:     runs,
		defaults: defaults,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/extractions", s.handleExtract)
	if runs != nil {
		mux.HandleFunc("GET /v1/runs/{id}", s.handleRun)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type extractionRequest struct {
	MapFile       string  `json:"map_file"`
	GeometryFile  string  `json:"geometry_file"`
	DepthFile     string  `json:"depth_file"`
	VelocityFile  string  `json:"velocity_file"`
	ScourRun      string  `json:"scour_run"`
	SearchRadius  float64 `json:"search_radius"`
	ReferenceName string  `json:"reference_name"`
	PerArc        bool    `json:"per_arc"`
}

type extractionResponse struct {
	*pipeline.Report
	SinkError string `json:"sink_error,omitempty"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.MapFile == "" || req.GeometryFile == "" || req.DepthFile == "" || req.VelocityFile == "" {
		writeError(w, http.StatusBadRequest, "map_file, geometry_file, depth_file and velocity_file are required")
		return
	}
	if req.SearchRadius < 0 {
		writeError(w, http.StatusBadRequest, "search_radius must be positive")
		return
	}

	job := pipeline.Job{
		Inputs: domain.Inputs{
			MapFile:      req.MapFile,
			GeometryFile: req.GeometryFile,
			DepthFile:    req.DepthFile,
			VelocityFile: req.VelocityFile,
		},
		ScourRun:      req.ScourRun,
		SearchRadius:  req.SearchRadius,
		ReferenceName: req.ReferenceName,
	}
	if job.ScourRun == "" {
		job.ScourRun = s.defaults.ScourRun
	}
	if job.SearchRadius == 0 {
		job.SearchRadius = s.defaults.SearchRadius
	}

	report, err := s.runner.Run(r.Context(), job, nil)
	if report == nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := extractionResponse{Report: report}
	if err != nil {
		s.logger.Warn("extraction finished with sink errors", "run_id", report.Run.ID, "error", err)
		resp.SinkError = err.Error()
	}
	if req.PerArc {
		summary := *report
		summary.Results = domain.PeakPerArc(report.Results)
		resp.Report = &summary
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.runs.Run(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	results, err := s.runs.Results(r.Context(), id)
	if err != nil {
		s.logger.Error("load stored results failed", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, pipeline.Report{Run: run, Results: results})
}

func statusFor(err error) int {
	var malformed *domain.MalformedInputError
	switch {
	case errors.Is(err, pipeline.ErrInvalidJob):
		return http.StatusBadRequest
	case errors.As(err, &malformed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, os.ErrNotExist), errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
