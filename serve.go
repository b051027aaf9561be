package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/api"
	"github.com/isdelr/teamkb-be/internal/auth"
	"github.com/isdelr/teamkb-be/internal/jobs"
	"github.com/isdelr/teamkb-be/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	matcher, err := newMatcher(cfg, st)
	if err != nil {
		return err
	}

	// Set up services
	eventService := services.NewEventService(st)
	userService := services.NewUserService(st)
	teamService := services.NewTeamService(st, st, eventService)
	articleService := services.NewArticleService(st, access.NewResolver(st), matcher, eventService)

	// Embeddings missed by inline indexing are backfilled in the background.
	var reindexer *jobs.Reindexer
	if cfg.UsesEmbeddings() {
		reindexer, err = jobs.NewReindexer(st, matcher, cfg.Search.ReindexSchedule)
		if err != nil {
			return err
		}
		go reindexer.Run(ctx)
	}

	router := api.NewRouter(api.Deps{
		Users:         userService,
		Teams:         teamService,
		Articles:      articleService,
		Events:        eventService,
		Issuer:        auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		DB:            st,
		Metrics:       api.NewMetrics(),
		CORSOrigins:   cfg.Server.CORSOrigins,
		SecureCookies: !cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	if reindexer != nil {
		reindexer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}
