package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	csvadapter "github.com/couchcryptid/pier-dxv-etl/internal/adapter/csv"
	"github.com/couchcryptid/pier-dxv-etl/internal/adapter/report"
	"github.com/couchcryptid/pier-dxv-etl/internal/config"
	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/couchcryptid/pier-dxv-etl/internal/observability"
	"github.com/couchcryptid/pier-dxv-etl/internal/pipeline"
	"github.com/couchcryptid/pier-dxv-etl/internal/raster"
	"github.com/spf13/cobra"
)

type extractFlags struct {
	inputs    domain.Inputs
	reference string
	out       string
	report    string
	scourRun  string
	radius    float64
	crs       string
	index     string
	perArc    bool
	coords    bool
	progress  bool
}

func newExtractCommand() *cobra.Command {
	f := &extractFlags{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run one extraction and write the result table",
		Long: `Attribute mesh nodes to the pier boundary nodes of a scour run, reduce the
depth and velocity rasters to their time maxima, and write the peak DxV row
of every pier as CSV.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runExtract(ctx, cmd, f, nil, observability.NewMetrics())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.inputs.MapFile, "map", "", "SMS map file (.map)")
	fl.StringVar(&f.inputs.GeometryFile, "geom", "", "SRH-2D geometry file (.srhgeom)")
	fl.StringVar(&f.inputs.DepthFile, "depth", "", "water depth result file (.h5)")
	fl.StringVar(&f.inputs.VelocityFile, "velocity", "", "velocity magnitude result file (.h5)")
	fl.StringVar(&f.reference, "reference", "", "file name to derive raster reference keys from (default: depth file name)")
	fl.StringVarP(&f.out, "out", "o", "-", `CSV output path, "-" for stdout`)
	fl.StringVar(&f.report, "report", "", "write an HTML bar-chart report to this path")
	fl.StringVar(&f.scourRun, "scour-run", "", "scour-run label (overrides SCOUR_RUN)")
	fl.Float64Var(&f.radius, "radius", 0, "search radius in model units (overrides SEARCH_RADIUS)")
	fl.StringVar(&f.crs, "crs", "", "EPSG code of the model coordinates (overrides OUTPUT_CRS)")
	fl.StringVar(&f.index, "index", "", "spatial index: kdtree or linear (overrides SPATIAL_INDEX)")
	fl.BoolVar(&f.perArc, "per-arc", false, "keep only the peak row of each pier arc")
	fl.BoolVar(&f.coords, "coords", false, "add model node easting/northing columns")
	fl.BoolVar(&f.progress, "progress", false, "print per-pier progress to stderr")
	for _, name := range []string{"map", "geom", "depth", "velocity"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// runExtract loads configuration, applies flag overrides, and runs one job.
// A nil source reads HDF5 files.
func runExtract(ctx context.Context, cmd *cobra.Command, f *extractFlags, source raster.Source, metrics *observability.Metrics) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := f.apply(cfg); err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	a, err := newApp(cfg, logger, metrics, source)
	if err != nil {
		return err
	}
	defer a.close()

	var obs pipeline.Observer
	if f.progress {
		obs = progressObserver{w: cmd.ErrOrStderr()}
	}

	rep, runErr := a.pipeline.Run(ctx, pipeline.Job{
		Inputs:        f.inputs,
		ScourRun:      cfg.ScourRun,
		SearchRadius:  cfg.SearchRadius,
		ReferenceName: f.reference,
	}, obs)
	if rep == nil {
		return runErr
	}

	results := rep.Results
	if f.perArc {
		results = domain.PeakPerArc(results)
	}

	if err := writeOutput(cmd.OutOrStdout(), f.out, func(w io.Writer) error {
		return csvadapter.Write(w, results, csvadapter.Options{Coordinates: f.coords, Geo: cfg.OutputCRS != ""})
	}); err != nil {
		return errors.Join(runErr, err)
	}
	if f.report != "" {
		if err := writeOutput(nil, f.report, func(w io.Writer) error {
			return report.Render(w, cfg.ScourRun, rep.Results)
		}); err != nil {
			return errors.Join(runErr, err)
		}
	}

	logger.Info("extraction complete",
		"run_id", rep.Run.ID,
		"rows", len(results),
		"skipped", len(rep.Warnings),
		"out", f.out,
	)
	return runErr
}

func (f *extractFlags) apply(cfg *config.Config) error {
	if f.scourRun != "" {
		cfg.ScourRun = f.scourRun
	}
	if f.radius != 0 {
		cfg.SearchRadius = f.radius
	}
	if f.crs != "" {
		cfg.OutputCRS = f.crs
	}
	if f.index != "" {
		cfg.SpatialIndex = f.index
	}
	return cfg.Validate()
}

// writeOutput writes to stdout when path is "-" and to a new file otherwise.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "-" && stdout != nil {
		return write(stdout)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(out); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}

type progressObserver struct {
	w io.Writer
}

func (p progressObserver) OnProgress(current, total int, pier domain.ArcNodeID) {
	fmt.Fprintf(p.w, "pier %d/%d (%s)\n", current, total, pier)
}

func (p progressObserver) OnWarning(w domain.SparseDataWarning) {
	fmt.Fprintln(p.w, "  "+w.String())
}
