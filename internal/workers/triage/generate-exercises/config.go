package generateexercises

import "time"

type Config struct {
	Timeout        time.Duration
	Count          int
	MinutesPerItem int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        20 * time.Second,
		Count:          3,
		MinutesPerItem: 5,
	}
}
