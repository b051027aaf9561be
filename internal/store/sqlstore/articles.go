package sqlstore

import (
	"context"
	"fmt"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/database"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/store"
)

const articleColumns = "a.id, a.title, a.content, a.metadata, a.created_at, a.updated_at, a.author_id, a.team_id"

// CreateArticle inserts a new article.
func (s *Store) CreateArticle(ctx context.Context, a models.Article) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (id, title, content, metadata, created_at, updated_at, author_id, team_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Content, a.Metadata, a.CreatedAt, a.UpdatedAt, a.AuthorID, a.Team)
	return err
}

// GetArticle retrieves a single article by its ID without any visibility check.
func (s *Store) GetArticle(ctx context.Context, id string) (models.Article, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles a WHERE a.id = ?", id)
	a, err := scanArticle(row)
	if err != nil {
		return models.Article{}, notFound(err, "article", id)
	}
	return a, nil
}

// UpdateArticle overwrites the mutable fields of an article.
func (s *Store) UpdateArticle(ctx context.Context, a models.Article) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE articles SET title = ?, content = ?, metadata = ?, updated_at = ? WHERE id = ?",
		a.Title, a.Content, a.Metadata, a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("article %s: %w", a.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteArticle removes an article; deleting a missing id is not an error.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	return err
}

// ListArticles returns every article in scope, newest first.
func (s *Store) ListArticles(ctx context.Context, scope access.Scope, filter store.ListFilter) ([]models.Article, error) {
	where, args := scopeClause(scope)
	if filter.Category != "" {
		where += " AND json_extract(a.metadata, '$.category') = ?"
		args = append(args, filter.Category)
	}
	return s.queryArticles(ctx,
		"SELECT "+articleColumns+" FROM articles a WHERE "+where+" ORDER BY a.created_at DESC, a.id DESC", args...)
}

// SearchArticles returns up to limit articles in scope whose title or content
// contains needle, ignoring case, newest first. Both sides are folded with
// strings.ToLower so non-ASCII letters compare equal across case.
func (s *Store) SearchArticles(ctx context.Context, scope access.Scope, needle string, limit int) ([]models.Article, error) {
	where, args := scopeClause(scope)
	pattern := store.ContainsPattern(needle)
	args = append(args, pattern, pattern, limit)
	return s.queryArticles(ctx, `
		SELECT `+articleColumns+` FROM articles a
		WHERE `+where+`
		  AND (`+database.LowerFunc+`(a.title) LIKE ? ESCAPE '\' OR `+database.LowerFunc+`(a.content) LIKE ? ESCAPE '\')
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?`, args...)
}

// GetArticlesByIDs returns the articles in scope among ids.
func (s *Store) GetArticlesByIDs(ctx context.Context, scope access.Scope, ids []string) ([]models.Article, error) {
	if len(ids) == 0 {
		return []models.Article{}, nil
	}
	where, args := scopeClause(scope)
	for _, id := range ids {
		args = append(args, id)
	}
	return s.queryArticles(ctx,
		"SELECT "+articleColumns+" FROM articles a WHERE "+where+" AND a.id IN ("+placeholders(len(ids))+")", args...)
}

func (s *Store) queryArticles(ctx context.Context, query string, args ...interface{}) ([]models.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func scanArticles(rows interface {
	scanner
	Next() bool
	Err() error
}) ([]models.Article, error) {
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

// scanArticle scans a row selected with articleColumns.
func scanArticle(row scanner) (models.Article, error) {
	var a models.Article
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Metadata, &a.CreatedAt, &a.UpdatedAt, &a.AuthorID, &a.Team)
	return a, err
}
