package config

import (
	"fmt"
)

// ResumeVariant declares one prepared resume file and the requirement
// tags it is tuned for. Rendering documents is outside this system;
// variants are looked up, never generated.
type ResumeVariant struct {
	ID   string   `mapstructure:"id"`
	Path string   `mapstructure:"path"`
	Tags []string `mapstructure:"tags"`
}

type ResumesConfig struct {
	DefaultVariant string          `mapstructure:"default_variant"`
	Variants       []ResumeVariant `mapstructure:"variants"`
}

func (config ResumesConfig) validate() error {
	var errs []error

	if config.DefaultVariant == "" {
		errs = append(errs, fmt.Errorf("missing variable: default_variant"))
	}

	found := false
	for _, variant := range config.Variants {
		if variant.ID == "" || variant.Path == "" {
			errs = append(errs, fmt.Errorf("resume variant needs both id and path"))
		}
		if variant.ID == config.DefaultVariant {
			found = true
		}
	}
	if !found {
		errs = append(errs, fmt.Errorf("default_variant %q is not declared in variants", config.DefaultVariant))
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
