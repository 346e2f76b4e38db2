package main

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/pier-dxv-etl/internal/adapter/hdf5"
	kafkaadapter "github.com/couchcryptid/pier-dxv-etl/internal/adapter/kafka"
	"github.com/couchcryptid/pier-dxv-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/pier-dxv-etl/internal/config"
	"github.com/couchcryptid/pier-dxv-etl/internal/observability"
	"github.com/couchcryptid/pier-dxv-etl/internal/pipeline"
	"github.com/couchcryptid/pier-dxv-etl/internal/raster"
	"github.com/couchcryptid/pier-dxv-etl/internal/reproject"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "dxv",
		Short:         "Extract peak DxV at bridge pier boundary nodes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExtractCommand(), newServeCommand())
	return root
}

// app holds the wired pipeline and the sinks that must be closed on exit.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	store    *sqlite.Store // nil unless RESULTS_DB_PATH is set
	closers  []func() error
}

func newApp(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, source raster.Source) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	opts := pipeline.Options{SpatialIndex: cfg.SpatialIndex}
	if cfg.OutputCRS != "" {
		r, err := reproject.ForEPSG(cfg.OutputCRS)
		if err != nil {
			return nil, fmt.Errorf("output crs: %w", err)
		}
		opts.Reprojector = r
		logger.Info("reprojection enabled", "crs", cfg.OutputCRS)
	}

	if cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(cfg, logger)
		opts.Sinks = append(opts.Sinks, pipeline.Sink{Name: "kafka", Loader: w})
		a.closers = append(a.closers, w.Close)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	}

	if cfg.ResultsDBPath != "" {
		store, err := sqlite.Open(cfg.ResultsDBPath, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		opts.Sinks = append(opts.Sinks, pipeline.Sink{Name: "sqlite", Loader: store})
		a.store = store
		a.closers = append(a.closers, store.Close)
		logger.Info("sqlite sink enabled", "path", cfg.ResultsDBPath)
	}

	if source == nil {
		source = hdf5.NewSource()
	}
	ex := raster.NewExtractor(source, cfg.RasterCacheSize, logger, metrics)
	a.pipeline = pipeline.New(ex, opts, logger, metrics)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("sink close error", "error", err)
		}
	}
	a.closers = nil
}
