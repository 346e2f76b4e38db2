// Package hdf5 reads SRH-2D XMDF result files. A file holds one top-level
// group; under it each reference group carries datasets whose "Values" array
// is laid out [time][node].
package hdf5

import (
	"fmt"

	"github.com/couchcryptid/pier-dxv-etl/internal/raster"
	"gonum.org/v1/hdf5"
)

// Source opens HDF5 result files read-only.
type Source struct{}

// NewSource returns a Source.
func NewSource() Source { return Source{} }

func (Source) Open(path string) (raster.File, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open hdf5 %s: %w", path, err)
	}
	root, err := rootGroup(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &file{f: f, root: root}, nil
}

// rootGroup is the name of the first object in the file, by name order.
func rootGroup(f *hdf5.File) (string, error) {
	n, err := f.NumObjects()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("file has no groups")
	}
	return f.ObjectNameByIndex(0)
}

type file struct {
	f    *hdf5.File
	root string
}

func (h *file) Block(ref, dataset string) (raster.Block, error) {
	name := h.root + "/" + ref + "/" + dataset + "/Values"
	ds, err := h.f.OpenDataset(name)
	if err != nil {
		return raster.Block{}, fmt.Errorf("open dataset %s: %w", name, err)
	}
	defer ds.Close()

	space := ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return raster.Block{}, fmt.Errorf("dataset %s extent: %w", name, err)
	}
	if len(dims) != 2 {
		return raster.Block{}, fmt.Errorf("dataset %s has rank %d, want 2", name, len(dims))
	}

	// The library converts stored float32 to float64 on read.
	values := make([]float64, dims[0]*dims[1])
	if len(values) > 0 {
		if err := ds.Read(&values); err != nil {
			return raster.Block{}, fmt.Errorf("read dataset %s: %w", name, err)
		}
	}
	return raster.Block{Steps: int(dims[0]), Nodes: int(dims[1]), Values: values}, nil
}

func (h *file) Close() error {
	return h.f.Close()
}
