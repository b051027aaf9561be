// Package jobs runs background maintenance work.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/teamkb-be/internal/models"
)

// DefaultBatchSize is how many stale articles are loaded per query.
const DefaultBatchSize = 50

// StaleSource lists articles whose search index entry is missing or outdated.
type StaleSource interface {
	ListStaleArticles(ctx context.Context, limit int) ([]models.Article, error)
}

// Indexer refreshes the index entry of one article.
type Indexer interface {
	Index(ctx context.Context, article models.Article) error
}

// Reindexer re-embeds stale articles on a cron schedule. Writes index
// articles inline; this job catches whatever failed or predates the index.
type Reindexer struct {
	source    StaleSource
	indexer   Indexer
	schedule  cron.Schedule
	batchSize int
	now       func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// NewReindexer parses a standard five-field cron expression.
func NewReindexer(source StaleSource, indexer Indexer, expression string) (*Reindexer, error) {
	schedule, err := cron.ParseStandard(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid reindex schedule %q: %w", expression, err)
	}
	return &Reindexer{
		source:    source,
		indexer:   indexer,
		schedule:  schedule,
		batchSize: DefaultBatchSize,
		now:       time.Now,
		done:      make(chan struct{}),
	}, nil
}

// Run blocks, running a pass immediately and then at every scheduled time,
// until ctx is cancelled or Stop is called.
func (r *Reindexer) Run(ctx context.Context) {
	log.Info().Msg("Starting reindex scheduler...")

	// Run once immediately on start
	r.runLogged(ctx)

	for {
		wait := r.schedule.Next(r.now()).Sub(r.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("Stopping reindex scheduler.")
			return
		case <-r.done:
			timer.Stop()
			log.Info().Msg("Stopping reindex scheduler.")
			return
		case <-timer.C:
			r.runLogged(ctx)
		}
	}
}

// Stop halts Run. It is safe to call more than once.
func (r *Reindexer) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

func (r *Reindexer) runLogged(ctx context.Context) {
	n, err := r.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Int("indexed", n).Msg("Reindex pass failed")
		return
	}
	if n > 0 {
		log.Info().Int("indexed", n).Msg("Reindex pass finished")
	}
}

// RunOnce indexes stale articles batch by batch and returns how many were
// indexed. A batch in which nothing could be indexed ends the pass, so a
// persistently failing embedder does not spin.
func (r *Reindexer) RunOnce(ctx context.Context) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		stale, err := r.source.ListStaleArticles(ctx, r.batchSize)
		if err != nil {
			return total, fmt.Errorf("list stale articles: %w", err)
		}

		indexed := 0
		for _, article := range stale {
			if err := r.indexer.Index(ctx, article); err != nil {
				log.Warn().Err(err).Str("article_id", article.ID).Msg("Failed to reindex article")
				continue
			}
			indexed++
		}
		total += indexed

		if len(stale) < r.batchSize || indexed == 0 {
			return total, nil
		}
	}
}
