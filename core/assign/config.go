package assign

import (
	"fmt"

	"github.com/fieldcrew/dispatch/core/score"
)

// Config defines assignment-related settings.
type Config struct {
	Weights score.Weights `json:"weights"`
	// AutoAssignEnabled is the default for high-priority auto-assignment;
	// the repository flag overrides it at runtime.
	AutoAssignEnabled bool `json:"auto_assign_enabled"`
	// AutoAssignDelaySeconds postpones auto-assignment after intake so the
	// import settles first.
	AutoAssignDelaySeconds int `json:"auto_assign_delay_seconds"`
	// AvgSpeedKmh and NominalTripKm parameterize the placeholder ETA. The
	// estimate is deliberately not derived from the real distance.
	AvgSpeedKmh   float64 `json:"avg_speed_kmh"`
	NominalTripKm float64 `json:"nominal_trip_km"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	zero := score.Weights{}
	if c.Weights == zero {
		c.Weights = score.DefaultWeights()
	}
	if c.AutoAssignDelaySeconds <= 0 {
		c.AutoAssignDelaySeconds = 5
	}
	if c.AvgSpeedKmh <= 0 {
		c.AvgSpeedKmh = 40
	}
	if c.NominalTripKm <= 0 {
		c.NominalTripKm = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	for name, w := range map[string]float64{
		"distance":   c.Weights.Distance,
		"competence": c.Weights.Competence,
		"materials":  c.Weights.Materials,
		"workload":   c.Weights.Workload,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("weight %s out of range [0,1]: %v", name, w)
		}
	}
	return nil
}
