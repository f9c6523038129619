package consolidate

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds configuration for the consolidation engine
type Config struct {
	// OverlapThreshold is the minimum Jaccard overlap between two
	// findings' citation sets for them to be merge candidates.
	// Higher values = more conservative (fewer merges).
	// Default: 0.6. Two findings citing three of four common facts
	// merge; findings sharing one of four do not.
	OverlapThreshold float64
}

// DefaultConfig returns the default consolidation configuration
func DefaultConfig() Config {
	return Config{OverlapThreshold: 0.6}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.OverlapThreshold <= 0.0 || c.OverlapThreshold > 1.0 {
		return fmt.Errorf("overlap_threshold must be in (0.0, 1.0] (got %.2f)", c.OverlapThreshold)
	}
	return nil
}

// ConfigFromEnv creates a Config from environment variables, falling
// back to defaults.
//
// Environment variables:
//   - DEALSCOPE_CONSOLIDATE_OVERLAP_THRESHOLD: minimum citation-set
//     Jaccard overlap to merge (default: 0.6)
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if value := os.Getenv("DEALSCOPE_CONSOLIDATE_OVERLAP_THRESHOLD"); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid value for DEALSCOPE_CONSOLIDATE_OVERLAP_THRESHOLD: %w", err)
		}
		cfg.OverlapThreshold = parsed
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}
