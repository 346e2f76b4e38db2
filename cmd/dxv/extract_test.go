package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/couchcryptid/pier-dxv-etl/internal/observability"
	"github.com/couchcryptid/pier-dxv-etl/internal/raster"
	"github.com/couchcryptid/pier-dxv-etl/internal/raster/rastertest"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	depthPath    = "Run1_Water_Depth_ft.h5"
	velocityPath = "Run1_Vel_Mag_ft_p_s.h5"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "data", "fixtures", name)
}

func testSource(t *testing.T) *rastertest.Source {
	t.Helper()
	src := rastertest.NewSource()
	require.NoError(t, src.Put(depthPath, "Run1", raster.DepthDataset, [][]float64{
		{1, 1, 2, 0, 0, 0, 2, 1.23456, 0, 0},
		{3, 0.5, 1, 0, 0, 0, 1, 0, 0, 0},
	}))
	require.NoError(t, src.Put(velocityPath, "Run1", raster.VelocityDataset, [][]float64{
		{4, 5, 1, 0, 3, 3, 2.5, 1, 0, 0},
		{2, 1, 0, 0, 1, 1, 2, 0.5, 0, 0},
	}))
	return src
}

func testFlags() *extractFlags {
	return &extractFlags{
		inputs: domain.Inputs{
			MapFile:      fixture("bridge_scour.map"),
			GeometryFile: fixture("bridge_scour.srhgeom"),
			DepthFile:    depthPath,
			VelocityFile: velocityPath,
		},
		out: "-",
	}
}

func runTestExtract(t *testing.T, f *extractFlags) (string, string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := runExtract(context.Background(), cmd, f, testSource(t), observability.NewMetricsForTesting())
	return stdout.String(), stderr.String(), err
}

func TestExtract_WritesCSV(t *testing.T) {
	out, _, err := runTestExtract(t, testFlags())
	require.NoError(t, err)

	assert.Equal(t,
		"Pier Arc ID,Pier Node,Model Node,DxV,Depth,Velocity\n"+
			"ArcID 7,ID 10,1,12.00,3.0000,4.0000\n"+
			"ArcID 8,ID 20,7,5.00,2.0000,2.5000\n"+
			"ArcID 8,ID 21,8,1.23,1.2346,1.0000\n",
		out)
}

func TestExtract_PerArc(t *testing.T) {
	f := testFlags()
	f.perArc = true

	out, _, err := runTestExtract(t, f)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ArcID 8,ID 20,7,5.00,2.0000,2.5000", lines[2])
}

func TestExtract_FilesAndReport(t *testing.T) {
	dir := t.TempDir()
	f := testFlags()
	f.out = filepath.Join(dir, "out", "piers.csv")
	f.report = filepath.Join(dir, "piers.html")
	f.coords = true
	f.progress = true

	stdout, stderr, err := runTestExtract(t, f)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "pier 2/4 (ID 11)")
	assert.Contains(t, stderr, "pier ID 11 skipped: no_positive_reading")

	csvData, err := os.ReadFile(f.out)
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "Easting,Northing")
	assert.Contains(t, string(csvData), "ArcID 7,ID 10,1,12.00,3.0000,4.0000,100.000,200.000")

	html, err := os.ReadFile(f.report)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Bridge Scour: DxV")
}

func TestExtract_FlagOverridesAreValidated(t *testing.T) {
	f := testFlags()
	f.radius = -1
	_, _, err := runTestExtract(t, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEARCH_RADIUS")

	f = testFlags()
	f.crs = "EPSG:4326"
	_, _, err = runTestExtract(t, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTPUT_CRS")
}

func TestExtract_UnknownScourRunYieldsHeaderOnly(t *testing.T) {
	f := testFlags()
	f.scourRun = "Other Run"

	out, _, err := runTestExtract(t, f)
	require.NoError(t, err)
	assert.Equal(t, "Pier Arc ID,Pier Node,Model Node,DxV,Depth,Velocity\n", out)
}

func TestExtract_SQLiteSink(t *testing.T) {
	t.Setenv("RESULTS_DB_PATH", filepath.Join(t.TempDir(), "results.db"))

	_, _, err := runTestExtract(t, testFlags())
	require.NoError(t, err)

	_, err = os.Stat(os.Getenv("RESULTS_DB_PATH"))
	assert.NoError(t, err)
}

func TestExtract_MissingMapFile(t *testing.T) {
	f := testFlags()
	f.inputs.MapFile = filepath.Join(t.TempDir(), "absent.map")

	_, _, err := runTestExtract(t, f)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRootCommand_RequiresInputs(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"extract", "--map", "a.map"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
