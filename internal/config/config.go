// Package config loads cammini.toml, the optional runtime-configuration
// file that overrides the FIFO path, pipeline and frontier sizing, the
// shutdown grace period, and the parent-table strategy.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ParentTableStrategy selects how BfsWorker tracks BFS predecessors.
type ParentTableStrategy string

const (
	ParentTableDense  ParentTableStrategy = "dense"
	ParentTableSparse ParentTableStrategy = "sparse"
)

// Config holds every tunable the original fixed at compile time or left as
// a hardcoded constant. Defaults reproduce the original's behavior exactly;
// cammini.toml only needs to list the keys it wants to override.
type Config struct {
	// FifoPath is where the query FIFO is created. Default: "cammini.pipe".
	FifoPath string `toml:"fifo_path"`

	// BufferCapacity is GraphLoader's declared pipeline depth, rounded up
	// to the next power of two by internal/queue. Default: 20.
	BufferCapacity int `toml:"buffer_capacity"`

	// FrontierCapacity is each BfsWorker's initial search-queue capacity.
	// Default: 250000.
	FrontierCapacity int `toml:"frontier_capacity"`

	// ShutdownGrace is how long QueryDispatcher waits for in-flight
	// workers to finish once shutdown begins. Default: 20s.
	ShutdownGrace time.Duration `toml:"shutdown_grace"`

	// FifoPollInterval is how often Select's timeout fires while waiting
	// for pipe readiness. Default: 500ms.
	FifoPollInterval time.Duration `toml:"fifo_poll_interval"`

	// FifoOpenRetryInterval is the sleep between non-blocking open
	// attempts while no writer has connected yet. Default: 1s.
	FifoOpenRetryInterval time.Duration `toml:"fifo_open_retry_interval"`

	// ParentTableStrategy selects dense or sparse predecessor tracking.
	// Default: dense.
	ParentTableStrategy ParentTableStrategy `toml:"parent_table_strategy"`
}

// Default returns the configuration the original program hardcoded.
func Default() Config {
	return Config{
		FifoPath:              "cammini.pipe",
		BufferCapacity:        20,
		FrontierCapacity:      250000,
		ShutdownGrace:         20 * time.Second,
		FifoPollInterval:      500 * time.Millisecond,
		FifoOpenRetryInterval: 1 * time.Second,
		ParentTableStrategy:   ParentTableDense,
	}
}

// Load reads and merges path (if non-empty and the file exists) over
// Default. A missing path is not an error — cammini.toml is optional, and
// every key it doesn't set keeps its default. A present-but-malformed file
// is fatal.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.BufferCapacity < 2 {
		return fmt.Errorf("buffer_capacity must be >= 2, got %d", c.BufferCapacity)
	}
	if c.FrontierCapacity < 1 {
		return fmt.Errorf("frontier_capacity must be >= 1, got %d", c.FrontierCapacity)
	}
	if c.ParentTableStrategy != ParentTableDense && c.ParentTableStrategy != ParentTableSparse {
		return fmt.Errorf("parent_table_strategy must be %q or %q, got %q", ParentTableDense, ParentTableSparse, c.ParentTableStrategy)
	}
	return nil
}
