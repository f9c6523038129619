// Package config loads the project-level configuration file and
// composes the per-stage configs from it.
//
// Precedence: defaults, then .dealscope/config.yaml, then environment
// variables. Environment always wins so operators can override a
// committed config without editing it.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oakmont/dealscope/internal/consolidate"
	"github.com/oakmont/dealscope/internal/cost"
	"github.com/oakmont/dealscope/internal/overlap"
	"github.com/oakmont/dealscope/internal/pipeline"
)

// DefaultPath is the project-relative config file location.
const DefaultPath = ".dealscope/config.yaml"

// File is the YAML shape of .dealscope/config.yaml. Zero values mean
// "use the default".
type File struct {
	// DealID names the engagement; recorded on every run.
	DealID string `yaml:"deal_id"`

	// DealType is the default deal structure for runs; commands may
	// override it per invocation.
	DealType string `yaml:"deal_type"`

	// DatabasePath is the SQLite database location.
	DatabasePath string `yaml:"database_path"`

	// DropDir is the directory watched for extraction output.
	DropDir string `yaml:"drop_dir"`

	Overlap struct {
		MaxFactsPerSide int `yaml:"max_facts_per_side"`
	} `yaml:"overlap"`

	Consolidate struct {
		OverlapThreshold float64 `yaml:"overlap_threshold"`
	} `yaml:"consolidate"`

	Cost struct {
		TSAAppMonthlyRate   float64 `yaml:"tsa_app_monthly_rate"`
		TSAInfraMonthlyRate float64 `yaml:"tsa_infra_monthly_rate"`
		TSAMonthlyFloor     float64 `yaml:"tsa_monthly_floor"`
		TSAMonthlyCeiling   float64 `yaml:"tsa_monthly_ceiling"`
	} `yaml:"cost"`

	Pipeline struct {
		MaxConcurrentDomains int `yaml:"max_concurrent_domains"`
		TSADurationMonths    int `yaml:"tsa_duration_months"`
	} `yaml:"pipeline"`
}

// Config is the fully resolved configuration.
type Config struct {
	DealID       string
	DealType     string
	DatabasePath string
	DropDir      string

	Overlap     overlap.Config
	Consolidate consolidate.Config
	Cost        cost.Config
	Pipeline    pipeline.Config
}

// Load resolves the configuration from path (or DefaultPath when
// empty). A missing file is not an error: defaults plus environment
// apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	var file File
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No file: defaults and environment only.
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := &Config{
		DealID:       file.DealID,
		DealType:     file.DealType,
		DatabasePath: file.DatabasePath,
		DropDir:      file.DropDir,
		Overlap:      overlap.DefaultConfig(),
		Consolidate:  consolidate.DefaultConfig(),
		Cost:         cost.DefaultConfig(),
		Pipeline:     pipeline.DefaultConfig(),
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(".dealscope", "dealscope.db")
	}
	if cfg.DropDir == "" {
		cfg.DropDir = filepath.Join(".dealscope", "drop")
	}

	if file.Overlap.MaxFactsPerSide > 0 {
		cfg.Overlap.MaxFactsPerSide = file.Overlap.MaxFactsPerSide
	}
	if file.Consolidate.OverlapThreshold > 0 {
		cfg.Consolidate.OverlapThreshold = file.Consolidate.OverlapThreshold
	}
	if file.Cost.TSAAppMonthlyRate > 0 {
		cfg.Cost.TSAAppMonthlyRate = file.Cost.TSAAppMonthlyRate
	}
	if file.Cost.TSAInfraMonthlyRate > 0 {
		cfg.Cost.TSAInfraMonthlyRate = file.Cost.TSAInfraMonthlyRate
	}
	if file.Cost.TSAMonthlyFloor > 0 {
		cfg.Cost.TSAMonthlyFloor = file.Cost.TSAMonthlyFloor
	}
	if file.Cost.TSAMonthlyCeiling > 0 {
		cfg.Cost.TSAMonthlyCeiling = file.Cost.TSAMonthlyCeiling
	}
	if file.Pipeline.MaxConcurrentDomains > 0 {
		cfg.Pipeline.MaxConcurrentDomains = file.Pipeline.MaxConcurrentDomains
	}
	if file.Pipeline.TSADurationMonths > 0 {
		cfg.Pipeline.TSADurationMonths = file.Pipeline.TSADurationMonths
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment overrides on top of the file values.
// The per-stage env loaders start from their own defaults, so only
// variables that are actually set are copied over.
func (c *Config) applyEnv() error {
	if v := os.Getenv("DEALSCOPE_DB_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("DEALSCOPE_DROP_DIR"); v != "" {
		c.DropDir = v
	}
	if v := os.Getenv("DEALSCOPE_DEAL_TYPE"); v != "" {
		c.DealType = v
	}

	if os.Getenv("DEALSCOPE_CONSOLIDATE_OVERLAP_THRESHOLD") != "" {
		env, err := consolidate.ConfigFromEnv()
		if err != nil {
			return err
		}
		c.Consolidate.OverlapThreshold = env.OverlapThreshold
	}

	costVars := []string{
		"DEALSCOPE_TSA_APP_MONTHLY_RATE",
		"DEALSCOPE_TSA_INFRA_MONTHLY_RATE",
		"DEALSCOPE_TSA_MONTHLY_FLOOR",
		"DEALSCOPE_TSA_MONTHLY_CEILING",
	}
	for _, key := range costVars {
		if os.Getenv(key) == "" {
			continue
		}
		env, err := cost.LoadFromEnv()
		if err != nil {
			return err
		}
		if os.Getenv(costVars[0]) != "" {
			c.Cost.TSAAppMonthlyRate = env.TSAAppMonthlyRate
		}
		if os.Getenv(costVars[1]) != "" {
			c.Cost.TSAInfraMonthlyRate = env.TSAInfraMonthlyRate
		}
		if os.Getenv(costVars[2]) != "" {
			c.Cost.TSAMonthlyFloor = env.TSAMonthlyFloor
		}
		if os.Getenv(costVars[3]) != "" {
			c.Cost.TSAMonthlyCeiling = env.TSAMonthlyCeiling
		}
		break
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.Overlap.Validate(); err != nil {
		return fmt.Errorf("overlap config: %w", err)
	}
	if err := c.Consolidate.Validate(); err != nil {
		return fmt.Errorf("consolidate config: %w", err)
	}
	if err := c.Cost.Validate(); err != nil {
		return fmt.Errorf("cost config: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}
	return nil
}
