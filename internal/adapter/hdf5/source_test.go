package hdf5

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/couchcryptid/pier-dxv-etl/internal/observability"
	"github.com/couchcryptid/pier-dxv-etl/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"
)

// writeXMDF creates a result file with one reference group holding dataset
// as a float32 [time][node] array, the way SRH-2D stores it.
func writeXMDF(t *testing.T, path, ref, dataset string, rows [][]float32) {
	t.Helper()
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	defer f.Close()

	root, err := f.CreateGroup("Datasets")
	require.NoError(t, err)
	defer root.Close()
	refGroup, err := root.CreateGroup(ref)
	require.NoError(t, err)
	defer refGroup.Close()
	dsGroup, err := refGroup.CreateGroup(dataset)
	require.NoError(t, err)
	defer dsGroup.Close()

	steps, nodes := uint(len(rows)), uint(len(rows[0]))
	flat := make([]float32, 0, steps*nodes)
	for _, r := range rows {
		flat = append(flat, r...)
	}

	space, err := hdf5.CreateSimpleDataspace([]uint{steps, nodes}, nil)
	require.NoError(t, err)
	defer space.Close()
	ds, err := dsGroup.CreateDataset("Values", hdf5.T_NATIVE_FLOAT, space)
	require.NoError(t, err)
	defer ds.Close()
	require.NoError(t, ds.Write(&flat))
}

func TestSource_ReadsBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Run1_Water_Depth_ft.h5")
	writeXMDF(t, path, "Run1", raster.DepthDataset, [][]float32{
		{0.5, 1.0, 0},
		{2.5, 0.25, 0},
	})

	f, err := NewSource().Open(path)
	require.NoError(t, err)
	defer f.Close()

	blk, err := f.Block("Run1", raster.DepthDataset)
	require.NoError(t, err)
	assert.Equal(t, 2, blk.Steps)
	assert.Equal(t, 3, blk.Nodes)
	assert.Equal(t, []float64{0.5, 1.0, 0, 2.5, 0.25, 0}, blk.Values)
}

func TestSource_MissingGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Run1_Water_Depth_ft.h5")
	writeXMDF(t, path, "Run1", raster.DepthDataset, [][]float32{{1}})

	f, err := NewSource().Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Block("Water", raster.DepthDataset)
	assert.Error(t, err)
}

func TestSource_MissingFile(t *testing.T) {
	_, err := NewSource().Open(filepath.Join(t.TempDir(), "absent.h5"))
	assert.Error(t, err)
}

func TestSource_WithExtractor(t *testing.T) {
	dir := t.TempDir()
	depth := filepath.Join(dir, "Run1_Water_Depth_ft.h5")
	velocity := filepath.Join(dir, "Run1_Vel_Mag_ft_p_s.h5")
	writeXMDF(t, depth, "Run1", raster.DepthDataset, [][]float32{{1, 3}, {2, 1}})
	writeXMDF(t, velocity, "Run1", raster.VelocityDataset, [][]float32{{4, 0.5}, {3, 0.75}})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ex := raster.NewExtractor(NewSource(), 4, logger, observability.NewMetricsForTesting())

	got, err := ex.Extract(context.Background(), raster.Request{
		DepthFile:    depth,
		VelocityFile: velocity,
		Nodes:        []domain.MeshNodeID{"1", "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeMax{{Node: "1", Value: 2}, {Node: "2", Value: 3}}, got.Depth)
	assert.Equal(t, []domain.NodeMax{{Node: "1", Value: 4}, {Node: "2", Value: 0.75}}, got.Velocity)
	assert.Equal(t, "Run1", got.DepthKey)
}
