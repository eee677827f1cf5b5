package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedsOnlyEnv forces seed-list mode regardless of the file setting.
const SeedsOnlyEnv = "UIVERSE_SEEDS_ONLY"

// LoadConfig overlays the YAML file at filePath onto Default. An empty path
// yields the defaults.
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		file, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				log.Printf("Warning: failed to close config file: %v", closeErr)
			}
		}()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if os.Getenv(SeedsOnlyEnv) == "1" {
		cfg.Run.SeedsOnly = true
	}
}
