package assembleplan

import "time"

type Config struct {
	PersistTimeout time.Duration
	NotifyTimeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PersistTimeout: 5 * time.Second,
		NotifyTimeout:  5 * time.Second,
	}
}
