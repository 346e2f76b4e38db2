package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/pier-dxv-etl/internal/reproject"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Spatial index implementations selectable with SPATIAL_INDEX.
const (
	IndexKDTree = "kdtree"
	IndexLinear = "linear"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ScourRun        string
	SearchRadius    float64
	SpatialIndex    string
	RasterCacheSize int
	// OutputCRS is the EPSG code of the model coordinates. Empty disables reprojection.
	OutputCRS string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaBrokers   []string
	KafkaEnabled   bool
	KafkaSinkTopic string
	BatchSize      int

	// ResultsDBPath enables the SQLite result store when set.
	ResultsDBPath string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	radius, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("SEARCH_RADIUS", "15"), 64)
	if err != nil {
		return nil, errors.New("invalid SEARCH_RADIUS")
	}

	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("RASTER_CACHE_SIZE", "8"))
	if err != nil {
		return nil, errors.New("invalid RASTER_CACHE_SIZE")
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		ScourRun:        sharedcfg.EnvOrDefault("SCOUR_RUN", "Bridge Scour"),
		SearchRadius:    radius,
		SpatialIndex:    sharedcfg.EnvOrDefault("SPATIAL_INDEX", IndexKDTree),
		RasterCacheSize: cacheSize,
		OutputCRS:       os.Getenv("OUTPUT_CRS"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    brokers,
		KafkaEnabled:    kafkaEnabled,
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "pier-dxv-results"),
		BatchSize:       batchSize,
		ResultsDBPath:   os.Getenv("RESULTS_DB_PATH"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that may also be overridden after Load, such as
// by command-line flags.
func (c *Config) Validate() error {
	if c.ScourRun == "" {
		return errors.New("SCOUR_RUN must not be empty")
	}
	if c.SearchRadius <= 0 {
		return errors.New("invalid SEARCH_RADIUS: must be positive")
	}
	if c.SpatialIndex != IndexKDTree && c.SpatialIndex != IndexLinear {
		return fmt.Errorf("invalid SPATIAL_INDEX %q: must be %s or %s", c.SpatialIndex, IndexKDTree, IndexLinear)
	}
	if c.RasterCacheSize < 1 {
		return errors.New("invalid RASTER_CACHE_SIZE: must be positive")
	}
	if c.OutputCRS != "" {
		if _, err := reproject.ForEPSG(c.OutputCRS); err != nil {
			return fmt.Errorf("invalid OUTPUT_CRS: %w", err)
		}
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.KafkaEnabled && c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	return nil
}
