package buildcatalogresources

type Config struct{}

func LoadConfig() *Config {
	return &Config{}
}
