package models

import "time"

// Event represents an auditable action taken by a user.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // e.g., "article.create", "team.member.add"
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	TeamID    *string   `json:"teamId,omitempty"` // Nullable for personal actions
	ArticleID *string   `json:"articleId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Event types recorded by the services.
const (
	EventArticleCreate = "article.create"
	EventArticleUpdate = "article.update"
	EventArticleDelete = "article.delete"
	EventTeamCreate    = "team.create"
	EventTeamMemberAdd = "team.member.add"
)
