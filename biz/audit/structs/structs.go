// Package structs defines audit log models.
package structs

import (
	"encoding/json"
	"time"
)

type Action string

const (
	ActionModerate            Action = "project.moderate"
	ActionBulkModerate        Action = "project.bulk_moderate"
	ActionReopen              Action = "project.reopen"
	ActionArchive             Action = "project.archive"
	ActionProgressOverride    Action = "project.progress_override"
	ActionApplicationOverride Action = "application.status_override"
)

const (
	EntityProject     = "project"
	EntityApplication = "application"
)

// Entry is one append-only audit record.
type Entry struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	ActorID    string          `json:"actor_id"`
	ActorRoles []string        `json:"actor_roles"`
	Action     Action          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type ListParams struct {
	Cursor     string `form:"cursor"`
	Limit      int    `form:"limit"`
	Action     string `form:"action"`
	EntityType string `form:"entity_type"`
	EntityID   string `form:"entity_id"`
}
