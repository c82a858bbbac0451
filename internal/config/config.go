// Package config loads all runtime configuration from environment variables.
//
// WHY A CONFIG STRUCT?
// Reading os.Getenv scattered across the codebase makes it impossible to see
// what the app actually needs to run. One struct, parsed once in main, is the
// single list of every knob — and every other package receives plain values,
// never the environment.
//
// The env struct tags are handled by caarlos0/env: each field is filled from
// the named variable, with envDefault when unset.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server needs from the environment.
//
// JWTSecret and AIServiceURL are deliberately NOT required at parse time:
// the server starts without them and degrades (auth routes unregistered,
// chat returns a configuration error) rather than refusing to boot. That
// matches how the rest of the app treats optional collaborators.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/tutor.db"`

	// JWTSecret signs session tokens. Generate with: openssl rand -hex 32
	JWTSecret string `env:"JWT_SECRET"`

	// AIServiceURL is the base URL of the Python AI service,
	// e.g. "http://localhost:8000". Empty means the chat route answers
	// with a configuration error.
	AIServiceURL string `env:"AI_SERVICE_URL"`

	// DefaultProvider is substituted into chat requests that don't name an
	// LLM provider themselves.
	DefaultProvider string `env:"LLM_PROVIDER_NAME" envDefault:"google"`

	// GitHub OAuth app credentials. Both empty → GitHub sign-in disabled.
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, nil
}
