package scoring

type Config struct {
	// MaxScaleValue is the top of the discrete answer scale; normalized
	// dimension values are divided by it to land in [0,1].
	MaxScaleValue int
}

func LoadConfig() *Config {
	return &Config{
		MaxScaleValue: 5,
	}
}
