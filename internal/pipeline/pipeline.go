// Package pipeline runs one pier DxV extraction: parse the map and geometry
// files, attribute mesh nodes to pier boundary nodes, reduce the rasters and
// pick the peak node per pier, then hand the rows to the configured sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/pier-dxv-etl/internal/config"
	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/couchcryptid/pier-dxv-etl/internal/observability"
	"github.com/couchcryptid/pier-dxv-etl/internal/raster"
	"github.com/couchcryptid/pier-dxv-etl/internal/reproject"
	"github.com/couchcryptid/pier-dxv-etl/internal/spatial"
)

// ErrInvalidJob is returned for a job that cannot run as described.
var ErrInvalidJob = errors.New("invalid job")

// Extractor reduces raster time series to per-node maxima.
type Extractor interface {
	Extract(ctx context.Context, req raster.Request) (raster.Series, error)
	Reset()
}

// BatchLoader writes the results of a finished run to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, run *domain.Run, results []domain.PierResult) error
}

// Sink is a named BatchLoader. The name labels metrics and log lines.
type Sink struct {
	Name   string
	Loader BatchLoader
}

// Observer receives progress and per-pier warnings while a run is in flight.
type Observer interface {
	OnProgress(current, total int, pier domain.ArcNodeID)
	OnWarning(w domain.SparseDataWarning)
}

// Job describes one extraction.
type Job struct {
	Inputs       domain.Inputs
	ScourRun     string
	SearchRadius float64
	// ReferenceName overrides the file name the raster reference keys are derived from.
	ReferenceName string
}

// Report is the outcome of a run.
type Report struct {
	Run      *domain.Run                `json:"run"`
	Results  []domain.PierResult        `json:"results"`
	Warnings []domain.SparseDataWarning `json:"warnings,omitempty"`
}

// Options configures a Pipeline.
type Options struct {
	SpatialIndex string // config.IndexKDTree (default) or config.IndexLinear
	Reprojector  reproject.Reprojector
	Sinks        []Sink
}

// Pipeline executes extraction jobs one at a time.
type Pipeline struct {
	extractor Extractor
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	mu        sync.Mutex
	ready     atomic.Bool
}

// New creates a Pipeline around the raster extractor.
func New(extractor Extractor, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes job. Parsing and raster access failures abort the run. When a
// sink fails the report is still returned together with the joined sink errors.
// obs may be nil.
func (p *Pipeline) Run(ctx context.Context, job Job, obs Observer) (*Report, error) {
	if job.ScourRun == "" {
		return nil, fmt.Errorf("%w: scour run label is empty", ErrInvalidJob)
	}
	if job.SearchRadius <= 0 {
		return nil, fmt.Errorf("%w: search radius %v must be positive", ErrInvalidJob, job.SearchRadius)
	}
	if obs == nil {
		obs = nopObserver{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)

	run := domain.NewRun(job.ScourRun, job.SearchRadius, job.Inputs)
	logger := p.logger.With("run_id", run.ID)
	logger.Info("run started", "scour_run", job.ScourRun, "radius", job.SearchRadius)

	report, err := p.extract(ctx, job, run, obs, logger)
	if err != nil {
		p.metrics.Runs.WithLabelValues("error").Inc()
		logger.Error("run failed", "error", err)
		return nil, err
	}

	p.metrics.Runs.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(run.Duration().Seconds())
	p.metrics.ResultsProduced.Add(float64(len(report.Results)))
	p.ready.Store(true)
	logger.Info("run finished",
		"piers", run.Piers,
		"results", run.Results,
		"skipped", len(report.Warnings),
		"duration", run.Duration(),
	)

	return report, p.load(ctx, run, report.Results, logger)
}

func (p *Pipeline) extract(ctx context.Context, job Job, run *domain.Run, obs Observer, logger *slog.Logger) (*Report, error) {
	mapData, err := parseFile(job.Inputs.MapFile, func(r io.Reader) (domain.MapData, error) {
		return domain.ParseMapFile(r, job.ScourRun)
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("map file parsed", "piers", len(mapData.Piers), "mappings", len(mapData.Mappings), "skipped_lines", mapData.Skipped)

	mesh, err := parseFile(job.Inputs.GeometryFile, domain.ParseGeometry)
	if err != nil {
		return nil, err
	}
	logger.Debug("geometry file parsed", "nodes", mesh.Len(), "skipped_lines", mesh.Skipped)

	attributions := spatial.Attribute(mapData.Piers, p.index(mesh), job.SearchRadius)

	p.extractor.Reset()
	defer p.extractor.Reset()

	report := &Report{Run: run, Results: make([]domain.PierResult, 0, len(attributions))}
	skip := func(pier domain.ArcNodeID, reason domain.SkipReason) {
		w := domain.SparseDataWarning{Pier: pier, Reason: reason}
		run.Skip(reason)
		report.Warnings = append(report.Warnings, w)
		p.metrics.PiersSkipped.WithLabelValues(string(reason)).Inc()
		logger.Warn("pier skipped", "pier_node", pier, "reason", reason)
		obs.OnWarning(w)
	}

	for i, a := range attributions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obs.OnProgress(i+1, len(attributions), a.Pier.ID)
		p.metrics.PiersProcessed.Inc()
		p.metrics.CandidateNodes.Observe(float64(len(a.Candidates)))

		if len(a.Candidates) == 0 {
			skip(a.Pier.ID, domain.SkipNoData)
			continue
		}

		series, err := p.extractor.Extract(ctx, raster.Request{
			DepthFile:     job.Inputs.DepthFile,
			VelocityFile:  job.Inputs.VelocityFile,
			ReferenceName: job.ReferenceName,
			Nodes:         candidateIDs(a.Candidates),
		})
		if errors.Is(err, raster.ErrUnresolved) {
			skip(a.Pier.ID, domain.SkipRasterUnresolved)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("extract pier %s: %w", a.Pier.ID, err)
		}
		logger.Debug("rasters resolved",
			"pier_node", a.Pier.ID,
			"candidates", len(a.Candidates),
			"depth_key", series.DepthKey,
			"velocity_key", series.VelocityKey,
		)

		arc, _ := mapData.ArcFor(a.Pier.ID)
		res, reason, ok := domain.ResolvePeak(a.Pier, arc, series.Depth, series.Velocity)
		if !ok {
			skip(a.Pier.ID, reason)
			continue
		}
		p.locate(&res, mesh, logger)
		report.Results = append(report.Results, res)
	}

	run.Piers = len(attributions)
	run.Finish(len(report.Results))
	return report, nil
}

// locate fills the projected and, when configured, geographic position of
// the chosen model node.
func (p *Pipeline) locate(res *domain.PierResult, mesh domain.Mesh, logger *slog.Logger) {
	node, ok := mesh.Node(res.ModelNode)
	if !ok {
		return
	}
	res.Easting, res.Northing = node.Point.X(), node.Point.Y()
	if p.opts.Reprojector == nil {
		return
	}
	geo, err := p.opts.Reprojector.ToWGS84(node.Point)
	if err != nil {
		logger.Warn("reprojection failed", "model_node", res.ModelNode, "error", err)
		return
	}
	res.Geo = &geo
}

func (p *Pipeline) index(mesh domain.Mesh) spatial.Index {
	if p.opts.SpatialIndex == config.IndexLinear {
		return spatial.NewLinearIndex(mesh)
	}
	return spatial.NewKDIndex(mesh)
}

// load hands the results to every sink. A failing sink does not stop the others.
func (p *Pipeline) load(ctx context.Context, run *domain.Run, results []domain.PierResult, logger *slog.Logger) error {
	var errs []error
	for _, s := range p.opts.Sinks {
		if err := s.Loader.LoadBatch(ctx, run, results); err != nil {
			p.metrics.LoaderErrors.WithLabelValues(s.Name).Inc()
			logger.Error("load batch failed", "sink", s.Name, "error", err, "batch_size", len(results))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

func parseFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

func candidateIDs(nodes []domain.ModelNode) []domain.MeshNodeID {
	ids := make([]domain.MeshNodeID, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

type nopObserver struct{}

func (nopObserver) OnProgress(int, int, domain.ArcNodeID) {}
func (nopObserver) OnWarning(domain.SparseDataWarning)    {}
