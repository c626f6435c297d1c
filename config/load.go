package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads the optional YAML config file and layers environment variables
// on top. A missing file is not an error; env-only deployments are the norm.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
