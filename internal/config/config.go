package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Search   SearchConfig
	Embedder EmbedderConfig
}

type ServerConfig struct {
	Port        int      `env:"PORT" envDefault:"8080"`
	Env         string   `env:"APP_ENV" envDefault:"development"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	Path   string `env:"DATABASE_PATH" envDefault:"./kb.db"`
	URL    string `env:"DATABASE_URL"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

type SearchConfig struct {
	Matcher         string  `env:"SEARCH_MATCHER" envDefault:"substring"`
	Threshold       float64 `env:"SEARCH_SIMILARITY_THRESHOLD" envDefault:"0.7"`
	ReindexSchedule string  `env:"REINDEX_SCHEDULE" envDefault:"*/5 * * * *"`
}

type EmbedderConfig struct {
	Provider     string `env:"EMBEDDER" envDefault:"openai"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-ada-002"`
	OllamaURL    string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel  string `env:"OLLAMA_MODEL" envDefault:"nomic-embed-text"`
}

// devSecret signs tokens when no secret is configured in development.
const devSecret = "dev-secret-change-me"

// Load reads an optional .env file, then the environment, and validates the
// result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Auth.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.Auth.JWTSecret = devSecret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Env, "development")
}

// UsesEmbeddings reports whether search needs an embedder.
func (c *Config) UsesEmbeddings() bool {
	return c.Search.Matcher == "embedding"
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("DATABASE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required outside development")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	switch c.Search.Matcher {
	case "substring":
	case "embedding":
		if c.Search.Threshold <= 0 || c.Search.Threshold >= 1 {
			return fmt.Errorf("SEARCH_SIMILARITY_THRESHOLD must be in (0, 1), got %v", c.Search.Threshold)
		}
		switch c.Embedder.Provider {
		case "openai":
			if c.Embedder.OpenAIAPIKey == "" {
				return errors.New("OPENAI_API_KEY is required for the openai embedder")
			}
		case "ollama":
			if c.Embedder.OllamaURL == "" {
				return errors.New("OLLAMA_URL is required for the ollama embedder")
			}
		default:
			return fmt.Errorf("unknown EMBEDDER %q", c.Embedder.Provider)
		}
	default:
		return fmt.Errorf("unknown SEARCH_MATCHER %q", c.Search.Matcher)
	}
	return nil
}
