// Package sqlite persists extraction runs and their result rows.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const insertBatchSize = 200

// RunRecord is one stored extraction run.
type RunRecord struct {
	ID           string `gorm:"primaryKey"`
	ScourRun     string `gorm:"index"`
	SearchRadius float64
	MapFile      string
	GeometryFile string
	DepthFile    string
	VelocityFile string
	StartedAt    time.Time
	FinishedAt   time.Time
	Piers        int
	Results      int

	SkippedNoData           int
	SkippedNoPositive       int
	SkippedRasterUnresolved int
}

func (RunRecord) TableName() string { return "runs" }

// PierResultRecord is one stored result row. Seq keeps the output order.
type PierResultRecord struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index:idx_run_seq,priority:1;not null"`
	Seq       int    `gorm:"index:idx_run_seq,priority:2"`
	PierArcID string
	PierNode  string `gorm:"index"`
	ModelNode string
	DxV       float64
	Depth     float64
	Velocity  float64
	Easting   float64
	Northing  float64
	Lat       *float64
	Lon       *float64
}

func (PierResultRecord) TableName() string { return "pier_results" }

// Store writes runs to a SQLite database. It implements pipeline.BatchLoader.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string, log *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}
	if err := db.AutoMigrate(&RunRecord{}, &PierResultRecord{}); err != nil {
		return nil, fmt.Errorf("migrate results schema: %w", err)
	}
	return &Store{db: db, logger: log}, nil
}

// LoadBatch stores run and its results in one transaction.
func (s *Store) LoadBatch(ctx context.Context, run *domain.Run, results []domain.PierResult) error {
	rows := make([]PierResultRecord, len(results))
	for i, r := range results {
		rows[i] = toRecord(run.ID, i, r)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(runRecord(run)).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("store run %s: %w", run.ID, err)
	}
	s.logger.Debug("run stored", "run_id", run.ID, "rows", len(rows))
	return nil
}

// Run returns the stored run with the given id.
func (s *Store) Run(ctx context.Context, id string) (*domain.Run, error) {
	var rec RunRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", id, domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return rec.toDomain(), nil
}

// Results returns the stored rows of a run in their original order.
func (s *Store) Results(ctx context.Context, runID string) ([]domain.PierResult, error) {
	var recs []PierResultRecord
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("seq").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load results of run %s: %w", runID, err)
	}
	out := make([]domain.PierResult, len(recs))
	for i, r := range recs {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func runRecord(run *domain.Run) *RunRecord {
	return &RunRecord{
		ID:                      run.ID,
		ScourRun:                run.ScourRun,
		SearchRadius:            run.SearchRadius,
		MapFile:                 run.Inputs.MapFile,
		GeometryFile:            run.Inputs.GeometryFile,
		DepthFile:               run.Inputs.DepthFile,
		VelocityFile:            run.Inputs.VelocityFile,
		StartedAt:               run.StartedAt,
		FinishedAt:              run.FinishedAt,
		Piers:                   run.Piers,
		Results:                 run.Results,
		SkippedNoData:           run.Skipped[domain.SkipNoData],
		SkippedNoPositive:       run.Skipped[domain.SkipNoPositiveReading],
		SkippedRasterUnresolved: run.Skipped[domain.SkipRasterUnresolved],
	}
}

func (r RunRecord) toDomain() *domain.Run {
	skipped := make(map[domain.SkipReason]int)
	for reason, n := range map[domain.SkipReason]int{
		domain.SkipNoData:            r.SkippedNoData,
		domain.SkipNoPositiveReading: r.SkippedNoPositive,
		domain.SkipRasterUnresolved:  r.SkippedRasterUnresolved,
	} {
		if n > 0 {
			skipped[reason] = n
		}
	}
	return &domain.Run{
		ID:           r.ID,
		ScourRun:     r.ScourRun,
		SearchRadius: r.SearchRadius,
		Inputs: domain.Inputs{
			MapFile:      r.MapFile,
			GeometryFile: r.GeometryFile,
			DepthFile:    r.DepthFile,
			VelocityFile: r.VelocityFile,
		},
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Piers:      r.Piers,
		Results:    r.Results,
		Skipped:    skipped,
	}
}

func toRecord(runID string, seq int, r domain.PierResult) PierResultRecord {
	rec := PierResultRecord{
		RunID:     runID,
		Seq:       seq,
		PierArcID: string(r.PierArcID),
		PierNode:  string(r.PierNode),
		ModelNode: string(r.ModelNode),
		DxV:       r.DxV,
		Depth:     r.Depth,
		Velocity:  r.Velocity,
		Easting:   r.Easting,
		Northing:  r.Northing,
	}
	if r.Geo != nil {
		lat, lon := r.Geo.Lat, r.Geo.Lon
		rec.Lat, rec.Lon = &lat, &lon
	}
	return rec
}

func (r PierResultRecord) toDomain() domain.PierResult {
	res := domain.PierResult{
		PierArcID: domain.ArcID(r.PierArcID),
		PierNode:  domain.ArcNodeID(r.PierNode),
		ModelNode: domain.MeshNodeID(r.ModelNode),
		DxV:       r.DxV,
		Depth:     r.Depth,
		Velocity:  r.Velocity,
		Easting:   r.Easting,
		Northing:  r.Northing,
	}
	if r.Lat != nil && r.Lon != nil {
		res.Geo = &domain.Geo{Lat: *r.Lat, Lon: *r.Lon}
	}
	return res
}
