package dispatcher

import "time"

// Config controls retries and bounds of a dispatch.
type Config struct {
	MaxAttempts       int           `yaml:"max_attempts"        validate:"min=1,max=10"`
	InitialInterval   time.Duration `yaml:"initial_interval"    validate:"min=0"`
	MaxInterval       time.Duration `yaml:"max_interval"        validate:"min=0"`
	AttemptTimeout    time.Duration `yaml:"attempt_timeout"     validate:"min=0"`
	MaxLoopIterations int           `yaml:"max_loop_iterations" validate:"min=1"`
	MaxTimerDuration  time.Duration `yaml:"max_timer_duration"  validate:"min=0"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialInterval:   500 * time.Millisecond,
		MaxInterval:       10 * time.Second,
		AttemptTimeout:    30 * time.Second,
		MaxLoopIterations: 100,
		MaxTimerDuration:  5 * time.Minute,
	}
}
