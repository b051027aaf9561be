// Package embedding provides clients that turn text into vectors for
// similarity search.
package embedding

import (
	"context"
	"math"
	"time"
)

// Embedder generates vector embeddings for text content. Implementations are
// constructed once at start-up and shared by all requests.
type Embedder interface {
	// EmbedDocument embeds an article body for storage.
	EmbedDocument(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery embeds a search query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// backoff returns the wait before retry attempt n (n >= 1): 1x, 2x, 4x ... of initial.
func backoff(attempt int, initial time.Duration) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt-1))) * initial
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
