package checkpoint

import "time"

type Config struct {
	// Purpose prefixes every storage key so different assessment flavours
	// never collide in the same Redis database.
	Purpose string

	// FreshnessWindow is the maximum checkpoint age accepted on load.
	FreshnessWindow time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Purpose:         "assessment_progress",
		FreshnessWindow: 24 * time.Hour,
	}
}
