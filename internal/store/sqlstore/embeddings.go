package sqlstore

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/store"
)

// UpsertEmbedding stores or replaces the vector for an article.
func (s *Store) UpsertEmbedding(ctx context.Context, articleID string, vector []float32, sourceUpdatedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO article_embeddings (article_id, embedding, dimensions, source_updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(article_id) DO UPDATE SET
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			source_updated_at = excluded.source_updated_at`,
		articleID, float32ToBlob(vector), len(vector), sourceUpdatedAt)
	return err
}

// DeleteEmbedding removes the vector for an article, if any.
func (s *Store) DeleteEmbedding(ctx context.Context, articleID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM article_embeddings WHERE article_id = ?", articleID)
	return err
}

// ListEmbeddings returns the vectors of every article in scope.
func (s *Store) ListEmbeddings(ctx context.Context, scope access.Scope) ([]store.ArticleVector, error) {
	where, args := scopeClause(scope)
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.article_id, e.embedding, e.dimensions
		FROM article_embeddings e
		JOIN articles a ON a.id = e.article_id
		WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vectors []store.ArticleVector
	for rows.Next() {
		var (
			v    store.ArticleVector
			blob []byte
			dims int
		)
		if err := rows.Scan(&v.ArticleID, &blob, &dims); err != nil {
			return nil, err
		}
		v.Vector = blobToFloat32(blob, dims)
		vectors = append(vectors, v)
	}
	return vectors, rows.Err()
}

// ListStaleArticles returns articles whose embedding is missing or older than their last update.
func (s *Store) ListStaleArticles(ctx context.Context, limit int) ([]models.Article, error) {
	return s.queryArticles(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		LEFT JOIN article_embeddings e ON e.article_id = a.id
		WHERE e.article_id IS NULL OR e.source_updated_at < a.updated_at
		ORDER BY a.updated_at, a.id
		LIMIT ?`, limit)
}

func float32ToBlob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func blobToFloat32(b []byte, dims int) []float32 {
	v := make([]float32, dims)
	for i := 0; i < dims && i*4+4 <= len(b); i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
