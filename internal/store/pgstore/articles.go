package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/store"
)

const articleColumns = `a.id, a.title, a.content, a.metadata, a.created_at, a.updated_at, a.author_id, a.team_id`

// CreateArticle inserts an article.
func (s *Store) CreateArticle(ctx context.Context, a models.Article) error {
	const query = `INSERT INTO articles (id, title, content, metadata, created_at, updated_at, author_id, team_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, query, a.ID, a.Title, a.Content, a.Metadata, a.CreatedAt, a.UpdatedAt, a.AuthorID, a.Team)
	return err
}

// GetArticle fetches an article by identifier without any visibility check.
func (s *Store) GetArticle(ctx context.Context, id string) (models.Article, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles a WHERE a.id = $1`, id)
	a, err := scanArticle(row)
	if err != nil {
		return models.Article{}, notFound(err, "article", id)
	}
	return a, nil
}

// UpdateArticle overwrites the mutable fields of an article.
func (s *Store) UpdateArticle(ctx context.Context, a models.Article) error {
	const query = `UPDATE articles SET title = $1, content = $2, metadata = $3, updated_at = $4 WHERE id = $5`
	tag, err := s.pool.Exec(ctx, query, a.Title, a.Content, a.Metadata, a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", a.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteArticle removes an article; a missing id is not an error.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	return err
}

// ListArticles returns every article in scope, newest first.
func (s *Store) ListArticles(ctx context.Context, scope access.Scope, filter store.ListFilter) ([]models.Article, error) {
	var params args
	where := scopeClause(scope, &params)
	if filter.Category != "" {
		where += " AND a.metadata->>'category' = " + params.add(filter.Category)
	}
	return s.queryArticles(ctx,
		`SELECT `+articleColumns+` FROM articles a WHERE `+where+` ORDER BY a.created_at DESC, a.id DESC`, params...)
}

// SearchArticles returns up to limit articles in scope whose title or content contains needle, ignoring case.
func (s *Store) SearchArticles(ctx context.Context, scope access.Scope, needle string, limit int) ([]models.Article, error) {
	var params args
	where := scopeClause(scope, &params)
	pattern := params.add(store.ContainsPattern(needle))
	query := `SELECT ` + articleColumns + ` FROM articles a
		WHERE ` + where + `
		  AND (a.title ILIKE ` + pattern + ` ESCAPE '\' OR a.content ILIKE ` + pattern + ` ESCAPE '\')
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ` + params.add(limit)
	return s.queryArticles(ctx, query, params...)
}

// GetArticlesByIDs returns the articles in scope among ids.
func (s *Store) GetArticlesByIDs(ctx context.Context, scope access.Scope, ids []string) ([]models.Article, error) {
	if len(ids) == 0 {
		return []models.Article{}, nil
	}
	var params args
	where := scopeClause(scope, &params)
	return s.queryArticles(ctx,
		`SELECT `+articleColumns+` FROM articles a WHERE `+where+` AND a.id = ANY(`+params.add(ids)+`)`, params...)
}

func (s *Store) queryArticles(ctx context.Context, query string, params ...any) ([]models.Article, error) {
	rows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func scanArticle(row pgx.Row) (models.Article, error) {
	var a models.Article
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Metadata, &a.CreatedAt, &a.UpdatedAt, &a.AuthorID, &a.Team)
	return a, err
}
