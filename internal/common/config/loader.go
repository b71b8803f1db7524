package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like BACKEND_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if not found.
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Walk up directories looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.Backend.BaseURL == "" {
		if val := os.Getenv("BACKEND_BASE_URL"); val != "" {
			cfg.Backend.BaseURL = val
		}
	}
	if cfg.Backend.APIKey == "" {
		if val := os.Getenv("BACKEND_API_KEY"); val != "" {
			cfg.Backend.APIKey = val
		}
	}
	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("POSTGRES_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Server.Token == "" {
		if val := os.Getenv("SERVER_TOKEN"); val != "" {
			cfg.Server.Token = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "assessment-engine"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 10000
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Engine.Checkpoint.Purpose == "" {
		cfg.Engine.Checkpoint.Purpose = "assessment_progress"
	}
	if cfg.Engine.Checkpoint.FreshnessWindow == 0 {
		cfg.Engine.Checkpoint.FreshnessWindow = 24 * time.Hour
	}
	if cfg.Engine.Scoring.MaxScaleValue == 0 {
		cfg.Engine.Scoring.MaxScaleValue = 5
	}
	if cfg.Engine.Matching.InterestWeight == 0 && cfg.Engine.Matching.PersonalityWeight == 0 {
		cfg.Engine.Matching.InterestWeight = 0.6
		cfg.Engine.Matching.PersonalityWeight = 0.4
	}
	if cfg.Engine.Matching.ScoreThreshold == 0 {
		cfg.Engine.Matching.ScoreThreshold = 0.6
	}
	if cfg.Engine.Matching.WeightThreshold == 0 {
		cfg.Engine.Matching.WeightThreshold = 0.6
	}
	if cfg.Engine.Matching.MaxReasons == 0 {
		cfg.Engine.Matching.MaxReasons = 3
	}
	if cfg.Engine.Matching.TopN == 0 {
		cfg.Engine.Matching.TopN = 10
	}
	if cfg.Engine.Session.PageSize == 0 {
		cfg.Engine.Session.PageSize = 5
	}
	if cfg.Engine.Session.ProcessingDelay == 0 {
		cfg.Engine.Session.ProcessingDelay = 2 * time.Second
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.MetricsAddress == "" {
		cfg.Server.MetricsAddress = ":9090"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Engine.Checkpoint.FreshnessWindow <= 0 {
		return fmt.Errorf("engine.checkpoint.freshness_window must be positive")
	}
	if cfg.Engine.Scoring.MaxScaleValue <= 0 {
		return fmt.Errorf("engine.scoring.max_scale_value must be positive")
	}
	m := cfg.Engine.Matching
	if m.InterestWeight < 0 || m.PersonalityWeight < 0 {
		return fmt.Errorf("engine.matching blend weights must be non-negative")
	}
	if sum := m.InterestWeight + m.PersonalityWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("engine.matching blend weights must sum to 1.0, got %.3f", sum)
	}
	if m.ScoreThreshold < 0 || m.ScoreThreshold > 1 || m.WeightThreshold < 0 || m.WeightThreshold > 1 {
		return fmt.Errorf("engine.matching thresholds must be within [0,1]")
	}
	return nil
}
