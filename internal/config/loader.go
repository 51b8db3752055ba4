package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultPath = "./config.yaml"

// Load builds the configuration from, in increasing priority, env-default
// tags, the YAML file and the environment, then validates it.
//
// A .env file in the working directory is merged into the environment first
// without overriding variables that are already set. The YAML file is
// CONFIG_PATH when set (and must then exist), otherwise ./config.yaml if
// present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}

	path, err := configPath()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", source(path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// configPath returns the YAML file to read, or "" for environment only.
func configPath() (string, error) {
	if p, ok := os.LookupEnv("CONFIG_PATH"); ok && p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config: file %s: %w", p, err)
		}
		return p, nil
	}
	if _, err := os.Stat(defaultPath); err != nil {
		return "", nil
	}
	return defaultPath, nil
}

func source(path string) string {
	if path == "" {
		return "environment"
	}
	return path
}
