package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/isdelr/teamkb-be/internal/models"
)

// CreateTeam inserts the team and its owner membership in one transaction.
func (s *Store) CreateTeam(ctx context.Context, team models.Team, owner models.TeamMembership) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx,
		`INSERT INTO teams (id, name, owner_id, created_at) VALUES ($1, $2, $3, $4)`,
		team.ID, team.Name, team.OwnerID, team.CreatedAt); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO team_memberships (id, team_id, user_id, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		owner.ID, owner.TeamID, owner.UserID, string(owner.Role), owner.CreatedAt); err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetTeam fetches a team by identifier.
func (s *Store) GetTeam(ctx context.Context, id string) (models.Team, error) {
	const query = `SELECT id, name, owner_id, created_at FROM teams WHERE id = $1`
	var t models.Team
	if err := s.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.OwnerID, &t.CreatedAt); err != nil {
		return models.Team{}, notFound(err, "team", id)
	}
	return t, nil
}

// GetMembership fetches the membership of a user in a team.
func (s *Store) GetMembership(ctx context.Context, teamID, userID string) (models.TeamMembership, error) {
	const query = `SELECT id, team_id, user_id, role, created_at FROM team_memberships WHERE team_id = $1 AND user_id = $2`
	var (
		m    models.TeamMembership
		role string
	)
	if err := s.pool.QueryRow(ctx, query, teamID, userID).Scan(&m.ID, &m.TeamID, &m.UserID, &role, &m.CreatedAt); err != nil {
		return models.TeamMembership{}, notFound(err, "membership", teamID+"/"+userID)
	}
	m.Role = models.Role(role)
	return m, nil
}

// AddMembership inserts a membership row.
func (s *Store) AddMembership(ctx context.Context, m models.TeamMembership) error {
	const query = `INSERT INTO team_memberships (id, team_id, user_id, role, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := s.pool.Exec(ctx, query, m.ID, m.TeamID, m.UserID, string(m.Role), m.CreatedAt)
	return conflict(err, "user is already a member")
}

// ListTeamsForUser lists the teams a user belongs to along with their role.
func (s *Store) ListTeamsForUser(ctx context.Context, userID string) ([]models.TeamWithRole, error) {
	const query = `SELECT t.id, t.name, t.owner_id, t.created_at, m.role
		FROM team_memberships m
		JOIN teams t ON t.id = m.team_id
		WHERE m.user_id = $1
		ORDER BY m.created_at, t.id`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []models.TeamWithRole{}
	for rows.Next() {
		var (
			tr   models.TeamWithRole
			role string
		)
		if err := rows.Scan(&tr.Team.ID, &tr.Team.Name, &tr.Team.OwnerID, &tr.Team.CreatedAt, &role); err != nil {
			return nil, err
		}
		tr.Role = models.Role(role)
		teams = append(teams, tr)
	}
	return teams, rows.Err()
}
