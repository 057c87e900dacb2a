package config

import (
	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, loading a
// local .env file first if one exists. Variables that are unset leave the
// current values untouched.
func parseEnv(config *Config) {

	// optional; absence of a .env file is not an error
	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
