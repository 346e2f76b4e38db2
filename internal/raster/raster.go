// Package raster reads time-series result rasters and reduces them to
// per-node maxima.
package raster

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Dataset names inside a reference group of SRH-2D XMDF output.
const (
	DepthDataset    = "Water_Depth_ft"
	VelocityDataset = "Vel_Mag_ft_p_s"
)

const maxReferenceKeys = 4

// ErrUnresolved means none of the candidate reference keys produced a usable block.
var ErrUnresolved = errors.New("raster reference unresolved")

// Block is a [time][node] array stored row-major.
type Block struct {
	Steps  int
	Nodes  int
	Values []float64
}

// NewBlock flattens rows of equal length into a Block.
func NewBlock(rows [][]float64) (Block, error) {
	b := Block{Steps: len(rows)}
	if len(rows) == 0 {
		return b, nil
	}
	b.Nodes = len(rows[0])
	b.Values = make([]float64, 0, b.Steps*b.Nodes)
	for t, r := range rows {
		if len(r) != b.Nodes {
			return Block{}, fmt.Errorf("row %d has %d values, want %d", t, len(r), b.Nodes)
		}
		b.Values = append(b.Values, r...)
	}
	return b, nil
}

// Column copies the time series of one 0-based node column into dst.
func (b Block) Column(col int, dst []float64) ([]float64, error) {
	if col < 0 || col >= b.Nodes {
		return nil, fmt.Errorf("column %d out of range [0,%d)", col, b.Nodes)
	}
	dst = dst[:0]
	for t := 0; t < b.Steps; t++ {
		dst = append(dst, b.Values[t*b.Nodes+col])
	}
	return dst, nil
}

// Source opens raster result files.
type Source interface {
	Open(path string) (File, error)
}

// File is one open raster file.
type File interface {
	// Block reads the complete block of dataset under the reference group ref.
	Block(ref, dataset string) (Block, error)
	io.Closer
}

// ReferenceKeys derives the candidate group keys from a result file name:
// the first four "_"-separated tokens of its base name, in order.
func ReferenceKeys(filename string) []string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return nil
	}
	parts := strings.Split(base, "_")
	if len(parts) > maxReferenceKeys {
		parts = parts[:maxReferenceKeys]
	}
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}
