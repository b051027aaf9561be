package main

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/isdelr/teamkb-be/internal/jobs"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Embed every article whose embedding is missing or stale, then exit",
	Long: `Runs a single reindex pass with the configured embedder. Only
meaningful when SEARCH_MATCHER=embedding.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.UsesEmbeddings() {
			return errors.New("reindex requires SEARCH_MATCHER=embedding")
		}

		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		matcher, err := newMatcher(cfg, st)
		if err != nil {
			return err
		}
		reindexer, err := jobs.NewReindexer(st, matcher, cfg.Search.ReindexSchedule)
		if err != nil {
			return err
		}

		n, err := reindexer.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Int("indexed", n).Msg("Reindex finished")
		return nil
	},
}
