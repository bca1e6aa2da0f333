// Package config resolves defaults for command-line flags from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DotEnvFile is loaded from the working directory when present.
const DotEnvFile = ".env"

// Config holds flag defaults. Explicit flags always take precedence.
type Config struct {
	Plan         string `env:"UPFCHAIN_PLAN" envDefault:"plan.json"`
	UPFDir       string `env:"UPFCHAIN_UPF_DIR"`
	Site         string `env:"UPFCHAIN_SITE"`
	SubmitScript string `env:"UPFCHAIN_SUBMIT_SCRIPT"`
	LogLevel     string `env:"UPFCHAIN_LOG_LEVEL" envDefault:"warn"`
}

// Load reads DotEnvFile, if any, then parses the environment.
// Variables already set in the environment are not overridden by the file.
func Load() (*Config, error) {
	return LoadFrom(DotEnvFile)
}

// LoadFrom is Load with an explicit .env path. A missing file is not an error.
func LoadFrom(dotenv string) (*Config, error) {
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
