package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/embedding"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/store"
)

// VectorSource stores article vectors and resolves matched ids back to
// articles. Both reads are restricted to a scope.
type VectorSource interface {
	UpsertEmbedding(ctx context.Context, articleID string, vector []float32, sourceUpdatedAt time.Time) error
	DeleteEmbedding(ctx context.Context, articleID string) error
	ListEmbeddings(ctx context.Context, scope access.Scope) ([]store.ArticleVector, error)
	GetArticlesByIDs(ctx context.Context, scope access.Scope, ids []string) ([]models.Article, error)
}

// EmbeddingMatcher ranks articles by cosine similarity between the query
// embedding and each article's stored embedding. Only scores strictly above
// the threshold count as matches.
type EmbeddingMatcher struct {
	embedder  embedding.Embedder
	vectors   VectorSource
	threshold float64
}

// NewEmbeddingMatcher creates an EmbeddingMatcher. The threshold must lie in
// the open interval (0, 1).
func NewEmbeddingMatcher(embedder embedding.Embedder, vectors VectorSource, threshold float64) (*EmbeddingMatcher, error) {
	if math.IsNaN(threshold) || threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("similarity threshold must be in (0, 1), got %v", threshold)
	}
	return &EmbeddingMatcher{embedder: embedder, vectors: vectors, threshold: threshold}, nil
}

func (m *EmbeddingMatcher) Name() string { return string(ModeEmbedding) }

// Scored pairs an article id with its similarity to the query.
type Scored struct {
	ArticleID string
	Score     float64
}

// Match embeds the query and returns the most similar articles in scope.
func (m *EmbeddingMatcher) Match(ctx context.Context, scope access.Scope, query string, limit int) ([]models.Article, error) {
	if scope.IsNone() || limit <= 0 {
		return []models.Article{}, nil
	}

	queryVec, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	candidates, err := m.vectors.ListEmbeddings(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	// Rank every match so articles deleted since the vector read can be
	// replaced by the next best ones.
	ranked := Rank(queryVec, candidates, m.threshold, len(candidates))

	articles := make([]models.Article, 0, limit)
	for len(ranked) > 0 && len(articles) < limit {
		n := limit - len(articles)
		if n > len(ranked) {
			n = len(ranked)
		}
		batch := ranked[:n]
		ranked = ranked[n:]

		ids := make([]string, len(batch))
		for i, r := range batch {
			ids[i] = r.ArticleID
		}
		found, err := m.vectors.GetArticlesByIDs(ctx, scope, ids)
		if err != nil {
			return nil, fmt.Errorf("load matched articles: %w", err)
		}
		byID := make(map[string]models.Article, len(found))
		for _, a := range found {
			byID[a.ID] = a
		}
		for _, id := range ids {
			if a, ok := byID[id]; ok {
				articles = append(articles, a)
			}
		}
	}
	return articles, nil
}

// Index embeds title and content together and stores the normalized vector.
func (m *EmbeddingMatcher) Index(ctx context.Context, article models.Article) error {
	vec, err := m.embedder.EmbedDocument(ctx, article.Title+" "+article.Content)
	if err != nil {
		return fmt.Errorf("embed article %s: %w", article.ID, err)
	}
	return m.vectors.UpsertEmbedding(ctx, article.ID, Normalize(vec), article.UpdatedAt)
}

// Forget deletes the stored vector.
func (m *EmbeddingMatcher) Forget(ctx context.Context, articleID string) error {
	return m.vectors.DeleteEmbedding(ctx, articleID)
}

// Rank scores candidates against query and keeps the top limit whose
// similarity exceeds threshold, highest first. Candidates of a different
// dimension are skipped.
func Rank(query []float32, candidates []store.ArticleVector, threshold float64, limit int) []Scored {
	q := Normalize(query)
	var scored []Scored
	for _, c := range candidates {
		if len(c.Vector) != len(q) {
			continue
		}
		score := dot(q, Normalize(c.Vector))
		if score > threshold {
			scored = append(scored, Scored{ArticleID: c.ArticleID, Score: score})
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ArticleID < scored[j].ArticleID
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Normalize scales v to unit length so that a dot product is the cosine
// similarity. The zero vector stays zero.
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
