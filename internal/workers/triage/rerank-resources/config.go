package rerankresources

import "time"

type Config struct {
	Timeout       time.Duration
	MaxSelections int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       20 * time.Second,
		MaxSelections: 3,
	}
}
