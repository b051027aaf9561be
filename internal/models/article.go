package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Article is a short text entry owned by its author or shared with a team.
type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	AuthorID  string    `json:"authorId"`
	Team      TeamRef   `json:"teamId"`
}

// Metadata is an opaque key-value bag attached to an article, e.g. {"category": "ops"}.
type Metadata map[string]any

// Category returns the "category" entry when it is a string.
func (m Metadata) Category() string {
	if c, ok := m["category"].(string); ok {
		return c
	}
	return ""
}

// Value stores metadata as a JSON document, or NULL when empty.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}

// Scan reads a JSON document written by Value.
func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported metadata column type %T", src)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*m = nil
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unmarshal metadata: %w", err)
	}
	*m = out
	return nil
}

// TeamRef says whom an article belongs to: its author alone (the zero value)
// or a team. It encodes as null or the team id in JSON and as NULL or text in SQL.
type TeamRef struct {
	teamID string
}

// Personal returns the reference for an article visible only to its author.
func Personal() TeamRef { return TeamRef{} }

// SharedWith returns the reference for an article shared with teamID.
func SharedWith(teamID string) TeamRef { return TeamRef{teamID: teamID} }

// TeamRefFrom converts an optional id from a request into a TeamRef.
func TeamRefFrom(teamID *string) TeamRef {
	if teamID == nil || *teamID == "" {
		return Personal()
	}
	return SharedWith(*teamID)
}

// IsPersonal reports whether the article has no team.
func (r TeamRef) IsPersonal() bool { return r.teamID == "" }

// TeamID returns the team id and whether there is one.
func (r TeamRef) TeamID() (string, bool) { return r.teamID, r.teamID != "" }

// Ptr returns the team id as a nullable pointer.
func (r TeamRef) Ptr() *string {
	if r.teamID == "" {
		return nil
	}
	id := r.teamID
	return &id
}

func (r TeamRef) String() string {
	if r.teamID == "" {
		return "personal"
	}
	return "team:" + r.teamID
}

func (r TeamRef) MarshalJSON() ([]byte, error) {
	if r.teamID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.teamID)
}

func (r *TeamRef) UnmarshalJSON(b []byte) error {
	var id *string
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	*r = TeamRefFrom(id)
	return nil
}

func (r TeamRef) Value() (driver.Value, error) {
	if r.teamID == "" {
		return nil, nil
	}
	return r.teamID, nil
}

func (r *TeamRef) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = Personal()
	case string:
		*r = SharedWith(v)
	case []byte:
		*r = SharedWith(string(v))
	default:
		return fmt.Errorf("unsupported team_id column type %T", src)
	}
	return nil
}
