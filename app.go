package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/teamkb-be/internal/config"
	"github.com/isdelr/teamkb-be/internal/database"
	"github.com/isdelr/teamkb-be/internal/embedding"
	"github.com/isdelr/teamkb-be/internal/search"
	"github.com/isdelr/teamkb-be/internal/store"
	"github.com/isdelr/teamkb-be/internal/store/pgstore"
	"github.com/isdelr/teamkb-be/internal/store/sqlstore"
)

// openStore connects to the configured backend and brings its schema up to
// date.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch database.Dialect(cfg.Database.Driver) {
	case database.SQLite:
		db, err := database.OpenSQLite(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.Migrate(ctx, db, database.SQLite); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		log.Info().Str("path", cfg.Database.Path).Msg("Using SQLite store")
		return sqlstore.New(db), nil

	case database.Postgres:
		pool, err := database.OpenPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		log.Info().Msg("Using PostgreSQL store")
		return pgstore.New(pool), nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// newEmbedder builds the embedding client once; it is shared by the search
// matcher and the reindex job.
func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedder.Provider {
	case "openai":
		return embedding.NewOpenAIClient(cfg.Embedder.OpenAIAPIKey,
			embedding.WithOpenAIModel(cfg.Embedder.OpenAIModel)), nil
	case "ollama":
		return embedding.NewOllamaClient(
			embedding.WithOllamaURL(cfg.Embedder.OllamaURL),
			embedding.WithOllamaModel(cfg.Embedder.OllamaModel)), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q", cfg.Embedder.Provider)
	}
}

// newMatcher selects the search strategy from configuration.
func newMatcher(cfg *config.Config, st store.Store) (search.TextMatcher, error) {
	mode := search.Mode(cfg.Search.Matcher)
	var embedder embedding.Embedder
	if mode == search.ModeEmbedding {
		e, err := newEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		embedder = e
	}
	matcher, err := search.New(mode, st, embedder, cfg.Search.Threshold)
	if err != nil {
		return nil, err
	}
	log.Info().Str("matcher", matcher.Name()).Msg("Search strategy selected")
	return matcher, nil
}
