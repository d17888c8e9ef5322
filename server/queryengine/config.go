package queryengine

import "github.com/pkg/errors"

// Config bounds what the detector will accept. The limits exist to keep
// pathological questions from producing absurd windows (a typo like
// "past 70000 days" should fail loudly, not scan a warehouse).
type Config struct {
	// MaxQuestionLength is the maximum question length in runes.
	MaxQuestionLength int `json:"maxQuestionLength" yaml:"maxQuestionLength"`

	// MaxWindowDays caps the span of a detected rolling window.
	MaxWindowDays int `json:"maxWindowDays" yaml:"maxWindowDays"`

	// MaxPeriodOffset caps the absolute calendar period offset.
	MaxPeriodOffset int `json:"maxPeriodOffset" yaml:"maxPeriodOffset"`
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxQuestionLength: 512,
		MaxWindowDays:     730,
		MaxPeriodOffset:   120,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.MaxQuestionLength <= 0 {
		return errors.New("maxQuestionLength must be positive")
	}
	if c.MaxWindowDays <= 0 {
		return errors.New("maxWindowDays must be positive")
	}
	if c.MaxPeriodOffset <= 0 {
		return errors.New("maxPeriodOffset must be positive")
	}
	return nil
}
