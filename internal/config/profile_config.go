package config

import (
	"github.com/awaizkhanmd/Automation/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

// ProfileConfig is the single user profile driving all applications.
// The pipeline reads it through models.UserProfile and never writes it.
type ProfileConfig struct {
	ID      string `mapstructure:"id" validate:"required"`
	Version int    `mapstructure:"version" validate:"gte=1"`

	FirstName string `mapstructure:"first_name" validate:"required"`
	LastName  string `mapstructure:"last_name" validate:"required"`
	Email     string `mapstructure:"email" validate:"required,email"`
	Phone     string `mapstructure:"phone"`
	Location  string `mapstructure:"location"`

	CurrentTitle    string   `mapstructure:"current_title"`
	TargetRoles     []string `mapstructure:"target_roles"`
	Skills          []string `mapstructure:"skills" validate:"min=1"`
	ExperienceYears int      `mapstructure:"experience_years" validate:"gte=0"`

	RemotePreference string `mapstructure:"remote_preference" validate:"omitempty,oneof=remote hybrid onsite any"`
	SalaryMin        int    `mapstructure:"salary_min"`
	SalaryMax        int    `mapstructure:"salary_max"`

	CookieFiles map[string]string `mapstructure:"cookie_files"`

	MaxApplicationsPerDay   int      `mapstructure:"max_applications_per_day" validate:"gte=1,lte=200"`
	ApplicationDelaySeconds int      `mapstructure:"application_delay_seconds" validate:"gte=0"`
	PreferredSites          []string `mapstructure:"preferred_sites" validate:"min=1"`
}

func (config ProfileConfig) validate() error {
	return validator.New().Struct(config)
}

// ToModel converts the config section into the read-only profile the
// pipeline components consume.
func (config ProfileConfig) ToModel() models.UserProfile {
	return models.UserProfile{
		ID:                      config.ID,
		Version:                 config.Version,
		FirstName:               config.FirstName,
		LastName:                config.LastName,
		Email:                   config.Email,
		Phone:                   config.Phone,
		Location:                config.Location,
		CurrentTitle:            config.CurrentTitle,
		TargetRoles:             config.TargetRoles,
		Skills:                  config.Skills,
		ExperienceYears:         config.ExperienceYears,
		RemotePreference:        config.RemotePreference,
		SalaryMin:               config.SalaryMin,
		SalaryMax:               config.SalaryMax,
		CredentialsRef:          config.CookieFiles,
		MaxApplicationsPerDay:   config.MaxApplicationsPerDay,
		ApplicationDelaySeconds: config.ApplicationDelaySeconds,
		PreferredSites:          config.PreferredSites,
	}
}
