package fetchnearbyresources

import "time"

type Config struct {
	Timeout      time.Duration
	RadiusMeters int
	MaxResults   int
	CacheTTL     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		RadiusMeters: 5000,
		MaxResults:   10,
		CacheTTL:     6 * time.Hour,
	}
}
