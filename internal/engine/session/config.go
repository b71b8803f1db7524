package session

import "time"

// Config carries pagination and processing-phase settings.
type Config struct {
	PageSize        int
	ProcessingDelay time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PageSize:        5,
		ProcessingDelay: 2 * time.Second,
	}
}
