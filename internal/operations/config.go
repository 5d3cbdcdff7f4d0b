package operations

import (
	"time"
)

// Config represents the run execution configuration
type Config struct {
	// Step-specific timeouts
	StepTimeouts map[string]time.Duration `json:"step_timeouts"`

	// Workers bounds concurrent dataset loading
	Workers int `json:"workers"`
}

// NewConfig returns the default run configuration
func NewConfig() *Config {
	return &Config{
		StepTimeouts: map[string]time.Duration{
			StepIDLoad: DefaultLoadTimeout,
		},
		Workers: 4,
	}
}

// GetStepTimeout returns the timeout for a specific Step
func (c *Config) GetStepTimeout(stepID string) time.Duration {
	if timeout, ok := c.StepTimeouts[stepID]; ok && timeout > 0 {
		return timeout
	}
	return DefaultStepTimeout
}

// SetStepTimeout sets the timeout for a specific Step
func (c *Config) SetStepTimeout(stepID string, timeout time.Duration) {
	if c.StepTimeouts == nil {
		c.StepTimeouts = make(map[string]time.Duration)
	}
	c.StepTimeouts[stepID] = timeout
}
