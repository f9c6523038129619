package cost

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the transitional-service rate card
type Config struct {
	// TSAAppMonthlyRate is the monthly cost per shared application
	// Default: $8,000
	TSAAppMonthlyRate float64 `json:"tsa_app_monthly_rate"`

	// TSAInfraMonthlyRate is the monthly cost per shared infrastructure component
	// Infrastructure is priced higher than applications: shared data
	// centers and networks are harder to disentangle.
	// Default: $15,000
	TSAInfraMonthlyRate float64 `json:"tsa_infra_monthly_rate"`

	// TSAMonthlyFloor is the minimum monthly TSA cost for a carve-out
	// Default: $25,000
	TSAMonthlyFloor float64 `json:"tsa_monthly_floor"`

	// TSAMonthlyCeiling caps the monthly TSA cost however many items are shared
	// Default: $400,000
	TSAMonthlyCeiling float64 `json:"tsa_monthly_ceiling"`
}

// DefaultConfig returns the default cost model configuration
func DefaultConfig() Config {
	return Config{
		TSAAppMonthlyRate:   8000,
		TSAInfraMonthlyRate: 15000,
		TSAMonthlyFloor:     25000,
		TSAMonthlyCeiling:   400000,
	}
}

// LoadFromEnv loads cost configuration from environment variables.
// Prefix: DEALSCOPE_TSA_
func LoadFromEnv() (Config, error) {
	cfg := DefaultConfig()

	for _, entry := range []struct {
		key  string
		dest *float64
	}{
		{"DEALSCOPE_TSA_APP_MONTHLY_RATE", &cfg.TSAAppMonthlyRate},
		{"DEALSCOPE_TSA_INFRA_MONTHLY_RATE", &cfg.TSAInfraMonthlyRate},
		{"DEALSCOPE_TSA_MONTHLY_FLOOR", &cfg.TSAMonthlyFloor},
		{"DEALSCOPE_TSA_MONTHLY_CEILING", &cfg.TSAMonthlyCeiling},
	} {
		if val := os.Getenv(entry.key); val != "" {
			parsed, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return cfg, fmt.Errorf("invalid value for %s: %w", entry.key, err)
			}
			*entry.dest = parsed
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid cost config from environment: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration has safe and reasonable values
func (c Config) Validate() error {
	if c.TSAAppMonthlyRate < 0 {
		return fmt.Errorf("tsa_app_monthly_rate must be non-negative, got %.2f", c.TSAAppMonthlyRate)
	}
	if c.TSAInfraMonthlyRate < 0 {
		return fmt.Errorf("tsa_infra_monthly_rate must be non-negative, got %.2f", c.TSAInfraMonthlyRate)
	}
	if c.TSAMonthlyFloor < 0 {
		return fmt.Errorf("tsa_monthly_floor must be non-negative, got %.2f", c.TSAMonthlyFloor)
	}
	if c.TSAMonthlyCeiling <= 0 {
		return fmt.Errorf("tsa_monthly_ceiling must be positive, got %.2f", c.TSAMonthlyCeiling)
	}
	if c.TSAMonthlyFloor > c.TSAMonthlyCeiling {
		return fmt.Errorf("tsa_monthly_floor (%.2f) exceeds ceiling (%.2f)", c.TSAMonthlyFloor, c.TSAMonthlyCeiling)
	}
	return nil
}
