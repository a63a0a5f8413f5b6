package activity

import (
	"fmt"
	"time"

	"socialfeed/models"
	"socialfeed/utils"
)

// Config holds the activity thresholds and the TTL chosen for each level.
type Config struct {
	HighPostsPerHour   float64
	MediumPostsPerHour float64
	LowPostsPerHour    float64
	// DormantAfter is how long without a post before the platform is dormant.
	DormantAfter time.Duration
	MetricsTTL   time.Duration

	TTLHigh    time.Duration
	TTLMedium  time.Duration
	TTLLow     time.Duration
	TTLDormant time.Duration
}

// DefaultConfig mirrors the defaults in config.LoadConfig.
func DefaultConfig() Config {
	return Config{
		HighPostsPerHour:   100,
		MediumPostsPerHour: 20,
		LowPostsPerHour:    1,
		DormantAfter:       24 * time.Hour,
		MetricsTTL:         7 * 24 * time.Hour,
		TTLHigh:            time.Minute,
		TTLMedium:          5 * time.Minute,
		TTLLow:             15 * time.Minute,
		TTLDormant:         time.Hour,
	}
}

// Validate checks that thresholds are descending and durations positive.
func (c Config) Validate() error {
	if !(c.HighPostsPerHour >= c.MediumPostsPerHour && c.MediumPostsPerHour >= c.LowPostsPerHour && c.LowPostsPerHour > 0) {
		return utils.NewValidationError("activity.Config",
			fmt.Sprintf("thresholds must satisfy high >= medium >= low > 0, got %v/%v/%v",
				c.HighPostsPerHour, c.MediumPostsPerHour, c.LowPostsPerHour))
	}
	for name, d := range map[string]time.Duration{
		"DormantAfter": c.DormantAfter,
		"MetricsTTL":   c.MetricsTTL,
		"TTLHigh":      c.TTLHigh,
		"TTLMedium":    c.TTLMedium,
		"TTLLow":       c.TTLLow,
		"TTLDormant":   c.TTLDormant,
	} {
		if d <= 0 {
			return utils.NewValidationError("activity.Config", name+" must be positive")
		}
	}
	return nil
}

// TTLFor maps a level to its configured cache lifetime.
func (c Config) TTLFor(level models.PlatformActivityLevel) time.Duration {
	switch level {
	case models.ActivityHigh:
		return c.TTLHigh
	case models.ActivityMedium:
		return c.TTLMedium
	case models.ActivityLow:
		return c.TTLLow
	case models.ActivityDormant:
		return c.TTLDormant
	}
	return c.TTLDormant
}
