package matching

// Config carries the blend ratio and reason thresholds. The historical
// 60/40 split and 0.6 cutoffs are defaults, not fixed behavior.
type Config struct {
	InterestWeight    float64
	PersonalityWeight float64
	ScoreThreshold    float64
	WeightThreshold   float64
	MaxReasons        int
	TopN              int
}

func LoadConfig() *Config {
	return &Config{
		InterestWeight:    0.6,
		PersonalityWeight: 0.4,
		ScoreThreshold:    0.6,
		WeightThreshold:   0.6,
		MaxReasons:        3,
		TopN:              10,
	}
}
