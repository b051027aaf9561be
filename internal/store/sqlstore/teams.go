package sqlstore

import (
	"context"
	"fmt"

	"github.com/isdelr/teamkb-be/internal/models"
)

// CreateTeam inserts a team and its owner membership in one transaction.
func (s *Store) CreateTeam(ctx context.Context, team models.Team, owner models.TeamMembership) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO teams (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)",
		team.ID, team.Name, team.OwnerID, team.CreatedAt); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO team_memberships (id, team_id, user_id, role, created_at) VALUES (?, ?, ?, ?, ?)",
		owner.ID, owner.TeamID, owner.UserID, owner.Role, owner.CreatedAt); err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}
	return tx.Commit()
}

// GetTeam retrieves a team by ID.
func (s *Store) GetTeam(ctx context.Context, id string) (models.Team, error) {
	var t models.Team
	err := s.db.QueryRowContext(ctx, "SELECT id, name, owner_id, created_at FROM teams WHERE id = ?", id).
		Scan(&t.ID, &t.Name, &t.OwnerID, &t.CreatedAt)
	if err != nil {
		return models.Team{}, notFound(err, "team", id)
	}
	return t, nil
}

// GetMembership retrieves the membership of userID in teamID.
func (s *Store) GetMembership(ctx context.Context, teamID, userID string) (models.TeamMembership, error) {
	var m models.TeamMembership
	err := s.db.QueryRowContext(ctx,
		"SELECT id, team_id, user_id, role, created_at FROM team_memberships WHERE team_id = ? AND user_id = ?",
		teamID, userID).Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		return models.TeamMembership{}, notFound(err, "membership", teamID+"/"+userID)
	}
	return m, nil
}

// AddMembership inserts a membership; an existing (team, user) pair is a conflict.
func (s *Store) AddMembership(ctx context.Context, m models.TeamMembership) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO team_memberships (id, team_id, user_id, role, created_at) VALUES (?, ?, ?, ?, ?)",
		m.ID, m.TeamID, m.UserID, m.Role, m.CreatedAt)
	return conflict(err, "user is already a member")
}

// ListTeamsForUser returns every team the user belongs to with their role, oldest membership first.
func (s *Store) ListTeamsForUser(ctx context.Context, userID string) ([]models.TeamWithRole, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.owner_id, t.created_at, m.role
		FROM team_memberships m
		JOIN teams t ON t.id = m.team_id
		WHERE m.user_id = ?
		ORDER BY m.created_at, t.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []models.TeamWithRole{}
	for rows.Next() {
		var tr models.TeamWithRole
		if err := rows.Scan(&tr.Team.ID, &tr.Team.Name, &tr.Team.OwnerID, &tr.Team.CreatedAt, &tr.Role); err != nil {
			return nil, err
		}
		teams = append(teams, tr)
	}
	return teams, rows.Err()
}
