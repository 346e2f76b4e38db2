package domain

import (
	"time"

	"github.com/google/uuid"
)

// Inputs names the four files of one extraction.
type Inputs struct {
	MapFile      string `json:"map_file"`
	GeometryFile string `json:"geometry_file"`
	DepthFile    string `json:"depth_file"`
	VelocityFile string `json:"velocity_file"`
}

// Run summarizes one batch extraction.
type Run struct {
	ID           string             `json:"id"`
	ScourRun     string             `json:"scour_run"`
	SearchRadius float64            `json:"search_radius"`
	Inputs       Inputs             `json:"inputs"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at"`
	Piers        int                `json:"piers"`
	Results      int                `json:"results"`
	Skipped      map[SkipReason]int `json:"skipped,omitempty"`
}

// NewRun starts a run record stamped with the current clock.
func NewRun(scourRun string, radius float64, in Inputs) *Run {
	return &Run{
		ID:           uuid.NewString(),
		ScourRun:     scourRun,
		SearchRadius: radius,
		Inputs:       in,
		StartedAt:    clock.Now(),
		Skipped:      make(map[SkipReason]int),
	}
}

// Skip records a skipped pier.
func (r *Run) Skip(reason SkipReason) {
	r.Skipped[reason]++
}

// Finish stamps the finish time and final counts.
func (r *Run) Finish(results int) {
	r.Results = results
	r.FinishedAt = clock.Now()
}

// Duration is the wall time between start and finish.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
