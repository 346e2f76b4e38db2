package raster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/couchcryptid/pier-dxv-etl/internal/observability"
	"gonum.org/v1/gonum/floats"
)

// errOpen marks a file that could not be opened at all. Unlike a missing
// group it is not specific to one reference key, so resolution stops.
var errOpen = errors.New("open raster file")

// Request names the rasters and mesh nodes for one extraction.
type Request struct {
	DepthFile    string
	VelocityFile string
	// ReferenceName supplies the reference keys. Defaults to the base name of DepthFile.
	ReferenceName string
	Nodes         []domain.MeshNodeID
}

// Series holds the per-node time maxima of depth and velocity, in request order.
type Series struct {
	Depth       []domain.NodeMax
	Velocity    []domain.NodeMax
	DepthKey    string
	VelocityKey string
}

// Extractor reduces raster time series to per-node maxima. Blocks are cached
// across calls until Reset, so a run reads each raster group once.
type Extractor struct {
	source  Source
	cache   *lruCache
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewExtractor creates an Extractor keeping up to cacheSize blocks in memory.
func NewExtractor(source Source, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{
		source:  source,
		cache:   newLRUCache(cacheSize),
		logger:  logger,
		metrics: metrics,
	}
}

// Reset drops every cached block. Call it between runs.
func (e *Extractor) Reset() {
	e.cache.reset()
}

// Extract returns the time maxima of depth and velocity for req.Nodes.
// For each raster the reference keys are tried in order and the first one
// whose group holds every requested node wins. If none does, the error wraps
// ErrUnresolved. A raster file that cannot be opened is returned as is.
func (e *Extractor) Extract(ctx context.Context, req Request) (Series, error) {
	if err := ctx.Err(); err != nil {
		return Series{}, err
	}
	name := req.ReferenceName
	if name == "" {
		name = filepath.Base(req.DepthFile)
	}
	keys := ReferenceKeys(name)

	depth, depthKey, err := e.resolve(req.DepthFile, keys, DepthDataset, req.Nodes)
	if err != nil {
		return Series{}, err
	}
	velocity, velocityKey, err := e.resolve(req.VelocityFile, keys, VelocityDataset, req.Nodes)
	if err != nil {
		return Series{}, err
	}

	return Series{Depth: depth, Velocity: velocity, DepthKey: depthKey, VelocityKey: velocityKey}, nil
}

func (e *Extractor) resolve(path string, keys []string, dataset string, nodes []domain.MeshNodeID) ([]domain.NodeMax, string, error) {
	for _, ref := range keys {
		blk, err := e.block(path, ref, dataset)
		if errors.Is(err, errOpen) {
			return nil, "", err
		}
		if err != nil {
			e.logger.Debug("reference key not usable", "path", path, "ref", ref, "dataset", dataset, "error", err)
			continue
		}
		maxima, err := columnMaxima(blk, nodes)
		if err != nil {
			e.logger.Debug("reference key rejected", "path", path, "ref", ref, "dataset", dataset, "error", err)
			continue
		}
		return maxima, ref, nil
	}
	return nil, "", fmt.Errorf("%s in %s (keys %v): %w", dataset, path, keys, ErrUnresolved)
}

// block returns the cached block for (path, ref, dataset), reading it on a miss.
// The file is opened and closed around the single read.
func (e *Extractor) block(path, ref, dataset string) (Block, error) {
	key := cacheKey(path, ref, dataset)
	if cached, ok := e.cache.get(key); ok {
		e.metrics.RasterCache.WithLabelValues("hit").Inc()
		return cached.block, cached.err
	}
	e.metrics.RasterCache.WithLabelValues("miss").Inc()

	f, err := e.source.Open(path)
	if err != nil {
		return Block{}, fmt.Errorf("%w %s: %w", errOpen, path, err)
	}
	blk, readErr := f.Block(ref, dataset)
	if err := f.Close(); err != nil {
		e.logger.Warn("raster close failed", "path", path, "error", err)
	}

	e.cache.put(key, cachedBlock{block: blk, err: readErr})
	return blk, readErr
}

// columnMaxima takes the maximum over all time steps of each node's column.
func columnMaxima(blk Block, nodes []domain.MeshNodeID) ([]domain.NodeMax, error) {
	if blk.Steps == 0 {
		return nil, errors.New("block has no time steps")
	}
	out := make([]domain.NodeMax, 0, len(nodes))
	buf := make([]float64, 0, blk.Steps)
	for _, n := range nodes {
		col, err := n.Column()
		if err != nil {
			return nil, err
		}
		series, err := blk.Column(col, buf)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n, err)
		}
		out = append(out, domain.NodeMax{Node: n, Value: floats.Max(series)})
		buf = series
	}
	return out, nil
}
