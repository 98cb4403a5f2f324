// Package structs defines application domain models.
package structs

import "time"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

type Application struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenant_id"`
	ProjectID         string    `json:"project_id"`
	StudentID         string    `json:"student_id"`
	StudentName       string    `json:"student_name"`
	StudentAvatar     string    `json:"student_avatar,omitempty"`
	StudentDepartment string    `json:"student_department,omitempty"`
	StudentYear       int       `json:"student_year,omitempty"`
	Status            Status    `json:"status"`
	Message           string    `json:"message"`
	AppliedAt         time.Time `json:"applied_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	// ProjectTitle is filled by listings that join the project.
	ProjectTitle string `json:"project_title,omitempty"`
}

type ApplyRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

type StatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=ACCEPTED REJECTED"`
}

type OverrideRequest struct {
	Status Status `json:"status" validate:"required,oneof=PENDING ACCEPTED REJECTED"`
	Reason string `json:"reason" validate:"max=1000"`
}

type ListParams struct {
	Cursor    string `form:"cursor"`
	Limit     int    `form:"limit"`
	Status    string `form:"status"`
	ProjectID string `form:"project_id"`
}
