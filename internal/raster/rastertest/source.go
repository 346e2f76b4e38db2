// Package rastertest provides an in-memory raster.Source for tests.
package rastertest

import (
	"fmt"
	"os"
	"sync"

	"github.com/couchcryptid/pier-dxv-etl/internal/raster"
)

// Source serves rasters held in memory.
type Source struct {
	mu    sync.Mutex
	files map[string]map[string]raster.Block
	opens int
}

// NewSource returns an empty Source.
func NewSource() *Source {
	return &Source{files: make(map[string]map[string]raster.Block)}
}

// Put stores rows ([time][node]) as dataset under group ref of path.
func (s *Source) Put(path, ref, dataset string, rows [][]float64) error {
	blk, err := raster.NewBlock(rows)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", ref, dataset, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files[path] == nil {
		s.files[path] = make(map[string]raster.Block)
	}
	s.files[path][ref+"/"+dataset] = blk
	return nil
}

// Opens reports how many times Open succeeded.
func (s *Source) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

func (s *Source) Open(path string) (raster.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	s.opens++
	return file{groups: groups}, nil
}

type file struct {
	groups map[string]raster.Block
}

func (f file) Block(ref, dataset string) (raster.Block, error) {
	blk, ok := f.groups[ref+"/"+dataset]
	if !ok {
		return raster.Block{}, fmt.Errorf("group %s/%s not found", ref, dataset)
	}
	return blk, nil
}

func (f file) Close() error { return nil }
