package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	AuthConfig
	CorsConfig
	StorageConfig
}

type mainConfig struct {
	EnvVars
	Auth
	Cors
	Storage
}

// New builds the configuration from environment variables. The signing
// secret has no default and the process must not start without one.
func New() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if c.Auth.SigningSecret == "" {
		return nil, fmt.Errorf("config: %s must be set", signingSecretEnvVar)
	}
	return c, nil
}

// NewStatic returns a Config built from the given values, bypassing the
// environment. Intended for tests.
func NewStatic(envVars EnvVars, auth Auth, cors Cors, storage Storage) Config {
	return mainConfig{envVars, auth, cors, storage}
}
