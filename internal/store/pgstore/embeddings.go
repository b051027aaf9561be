package pgstore

import (
	"context"
	"time"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/store"
)

// UpsertEmbedding stores or replaces the vector for an article.
func (s *Store) UpsertEmbedding(ctx context.Context, articleID string, vector []float32, sourceUpdatedAt time.Time) error {
	const query = `INSERT INTO article_embeddings (article_id, embedding, source_updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (article_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			source_updated_at = EXCLUDED.source_updated_at`
	_, err := s.pool.Exec(ctx, query, articleID, vector, sourceUpdatedAt)
	return err
}

// DeleteEmbedding removes the vector for an article, if any.
func (s *Store) DeleteEmbedding(ctx context.Context, articleID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM article_embeddings WHERE article_id = $1`, articleID)
	return err
}

// ListEmbeddings returns the vectors of every article in scope.
func (s *Store) ListEmbeddings(ctx context.Context, scope access.Scope) ([]store.ArticleVector, error) {
	var params args
	where := scopeClause(scope, &params)
	rows, err := s.pool.Query(ctx, `SELECT e.article_id, e.embedding
		FROM article_embeddings e
		JOIN articles a ON a.id = e.article_id
		WHERE `+where, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vectors []store.ArticleVector
	for rows.Next() {
		var v store.ArticleVector
		if err := rows.Scan(&v.ArticleID, &v.Vector); err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, rows.Err()
}

// ListStaleArticles returns articles whose embedding is missing or older than their last update.
func (s *Store) ListStaleArticles(ctx context.Context, limit int) ([]models.Article, error) {
	return s.queryArticles(ctx, `SELECT `+articleColumns+`
		FROM articles a
		LEFT JOIN article_embeddings e ON e.article_id = a.id
		WHERE e.article_id IS NULL OR e.source_updated_at < a.updated_at
		ORDER BY a.updated_at, a.id
		LIMIT $1`, limit)
}
