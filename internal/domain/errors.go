package domain

import (
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when no stored run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// MalformedInputError reports a value in a model text file that should have
// parsed but did not. It aborts the run.
type MalformedInputError struct {
	File  string // "map" or "geometry"
	Line  int    // 1-based
	Field string
	Value string
	Err   error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s file: line %d: %s %q: %v", e.File, e.Line, e.Field, e.Value, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// SkipReason explains why a pier produced no result.
type SkipReason string

const (
	// SkipNoData means no depth or velocity values were extracted for the candidates.
	SkipNoData SkipReason = "no_data"
	// SkipNoPositiveReading means values existed but none were strictly positive on a common node.
	SkipNoPositiveReading SkipReason = "no_positive_reading"
	// SkipRasterUnresolved means no candidate reference key matched a raster group.
	SkipRasterUnresolved SkipReason = "raster_unresolved"
)

// SparseDataWarning is a recoverable per-pier condition. The run continues
// without a result row for Pier.
type SparseDataWarning struct {
	Pier   ArcNodeID  `json:"pier_node"`
	Reason SkipReason `json:"reason"`
}

func (w SparseDataWarning) String() string {
	return fmt.Sprintf("pier %s skipped: %s", w.Pier, w.Reason)
}
