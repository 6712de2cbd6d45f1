package config

import (
	"fmt"
	"time"
)

// AutomationConfig controls the browser state machine and the session
// coordinator: retry policy, timeouts, worker pool size and the per-site
// circuit breaker.
type AutomationConfig struct {
	Headless                 bool   `mapstructure:"headless"`
	MaxRetries               int    `mapstructure:"max_retries"`
	BaseDelaySeconds         int    `mapstructure:"base_delay_seconds"`
	MaxDelaySeconds          int    `mapstructure:"max_delay_seconds"`
	Concurrency              int    `mapstructure:"concurrency"`
	BreakerThreshold         int    `mapstructure:"breaker_threshold"`
	NavigationTimeoutSeconds int    `mapstructure:"navigation_timeout_seconds"`
	VerifyTimeoutSeconds     int    `mapstructure:"verify_timeout_seconds"`
	ArtifactDir              string `mapstructure:"artifact_dir"`
	CookieDir                string `mapstructure:"cookie_dir"`
}

func (config AutomationConfig) BaseDelay() time.Duration {
	return time.Duration(config.BaseDelaySeconds) * time.Second
}

func (config AutomationConfig) MaxDelay() time.Duration {
	return time.Duration(config.MaxDelaySeconds) * time.Second
}

func (config AutomationConfig) NavigationTimeout() time.Duration {
	return time.Duration(config.NavigationTimeoutSeconds) * time.Second
}

func (config AutomationConfig) VerifyTimeout() time.Duration {
	return time.Duration(config.VerifyTimeoutSeconds) * time.Second
}

func (config AutomationConfig) validate() error {
	var errs []error

	if config.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must not be negative"))
	}
	if config.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1"))
	}
	if config.BreakerThreshold < 1 {
		errs = append(errs, fmt.Errorf("breaker_threshold must be at least 1"))
	}
	if config.BaseDelaySeconds <= 0 || config.MaxDelaySeconds < config.BaseDelaySeconds {
		errs = append(errs, fmt.Errorf("delays must satisfy 0 < base_delay_seconds <= max_delay_seconds"))
	}
	if config.ArtifactDir == "" {
		errs = append(errs, fmt.Errorf("missing variable: artifact_dir"))
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
