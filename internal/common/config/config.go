// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig holds settings for the assessment backend API.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EngineConfig groups the assessment engine tunables. The matching blend
// ratio and reason thresholds carry the historical values as defaults but
// are deliberately configurable.
type EngineConfig struct {
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Session    SessionConfig    `mapstructure:"session"`
}

// CheckpointConfig controls in-progress answer persistence.
type CheckpointConfig struct {
	Purpose         string        `mapstructure:"purpose"`          // key namespace prefix
	FreshnessWindow time.Duration `mapstructure:"freshness_window"` // max checkpoint age
}

type ScoringConfig struct {
	MaxScaleValue int    `mapstructure:"max_scale_value"`
	AnswerMapPath string `mapstructure:"answer_map_path"` // optional registry override
}

type MatchingConfig struct {
	InterestWeight    float64 `mapstructure:"interest_weight"`
	PersonalityWeight float64 `mapstructure:"personality_weight"`
	ScoreThreshold    float64 `mapstructure:"score_threshold"`  // vector value floor for reasons
	WeightThreshold   float64 `mapstructure:"weight_threshold"` // profile weight floor for reasons
	MaxReasons        int     `mapstructure:"max_reasons"`
	TopN              int     `mapstructure:"top_n"`
}

type SessionConfig struct {
	PageSize        int           `mapstructure:"page_size"`
	ProcessingDelay time.Duration `mapstructure:"processing_delay"`
}

// ServerConfig holds HTTP surface settings. An empty Token disables bearer
// authentication.
type ServerConfig struct {
	Address        string `mapstructure:"address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	Token          string `mapstructure:"token"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
