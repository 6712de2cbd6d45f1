package config

import (
	"errors"
	"fmt"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"os"
)

type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	DB         DBConfig         `mapstructure:"db"`
	Automation AutomationConfig `mapstructure:"automation"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Profile    ProfileConfig    `mapstructure:"profile"`
	Resumes    ResumesConfig    `mapstructure:"resumes"`
}

var configFile = "./configs/config.yaml"

func Get() *Config {

	if value, _ := os.LookupEnv("MODE"); value == "test" {
		configFile = "../../configs/config.yaml"
	}

	config, err := Load(configFile)
	if err != nil {
		log.Fatal(err)
	}

	return config
}

func Load(file string) (*Config, error) {

	viper.SetConfigFile(file)
	viper.AutomaticEnv()

	setDefaults()

	err := bindEnvironmentVariables()
	if err != nil {
		return nil, err
	}

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Config{}
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("automation.max_retries", 3)
	viper.SetDefault("automation.base_delay_seconds", 2)
	viper.SetDefault("automation.max_delay_seconds", 60)
	viper.SetDefault("automation.concurrency", 2)
	viper.SetDefault("automation.breaker_threshold", 3)
	viper.SetDefault("automation.navigation_timeout_seconds", 30)
	viper.SetDefault("automation.verify_timeout_seconds", 15)
	viper.SetDefault("automation.headless", true)
	viper.SetDefault("automation.artifact_dir", "./data/artifacts")
	viper.SetDefault("planner.min_score", 0.5)
	viper.SetDefault("planner.learning_rate", 0.1)
	viper.SetDefault("planner.target_rate", 0.5)
	viper.SetDefault("planner.min_weight", 0.1)
	viper.SetDefault("planner.max_weight", 3.0)
	viper.SetDefault("planner.history_window_days", 30)
	viper.SetDefault("planner.history_window_attempts", 200)
	viper.SetDefault("scoring.timeout_seconds", 20)
}

func bindEnvironmentVariables() error {
	var errs []error

	db, logger, scoring := DBConfig{}, LoggerConfig{}, ScoringConfig{}

	if err := db.bindEnvironmentVariables(); err != nil {
		errs = append(errs, fmt.Errorf("DBConfig: %w", err))
	}

	if err := logger.bindEnvironmentVariables(); err != nil {
		errs = append(errs, fmt.Errorf("LoggerConfig: %w", err))
	}

	if err := scoring.bindEnvironmentVariables(); err != nil {
		errs = append(errs, fmt.Errorf("ScoringConfig: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config Config) validate() error {
	var errs []error

	if err := config.DB.validate(); err != nil {
		errs = append(errs, fmt.Errorf("DBConfig: %w", err))
	}

	if err := config.Logger.validate(); err != nil {
		errs = append(errs, fmt.Errorf("LoggerConfig: %w", err))
	}

	if err := config.Automation.validate(); err != nil {
		errs = append(errs, fmt.Errorf("AutomationConfig: %w", err))
	}

	if err := config.Planner.validate(); err != nil {
		errs = append(errs, fmt.Errorf("PlannerConfig: %w", err))
	}

	if err := config.Scoring.validate(); err != nil {
		errs = append(errs, fmt.Errorf("ScoringConfig: %w", err))
	}

	if err := config.Profile.validate(); err != nil {
		errs = append(errs, fmt.Errorf("ProfileConfig: %w", err))
	}

	if err := config.Resumes.validate(); err != nil {
		errs = append(errs, fmt.Errorf("ResumesConfig: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func createMultiError(errs []error) error {
	return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
}
