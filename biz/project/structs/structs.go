// Package structs defines project domain models.
package structs

import (
	"slices"
	"time"
)

type ProjectType string

const (
	TypeProject      ProjectType = "PROJECT"
	TypeResearch     ProjectType = "RESEARCH"
	TypePaperPublish ProjectType = "PAPER_PUBLISH"
	TypeOther        ProjectType = "OTHER"
)

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "PENDING_APPROVAL"
	ModerationApproved ModerationStatus = "APPROVED"
	ModerationRejected ModerationStatus = "REJECTED"
)

type ProgressStatus string

const (
	ProgressOpen       ProgressStatus = "OPEN"
	ProgressInProgress ProgressStatus = "IN_PROGRESS"
	ProgressCompleted  ProgressStatus = "COMPLETED"
)

var progressRank = map[ProgressStatus]int{
	ProgressOpen:       0,
	ProgressInProgress: 1,
	ProgressCompleted:  2,
}

// Advances reports whether moving from s to next goes forward.
func (s ProgressStatus) Advances(next ProgressStatus) bool {
	return progressRank[next] > progressRank[s]
}

// Valid reports whether s is a known progress status.
func (s ProgressStatus) Valid() bool {
	_, ok := progressRank[s]
	return ok
}

type Project struct {
	ID                string           `json:"id"`
	TenantID          string           `json:"tenant_id"`
	AuthorID          string           `json:"author_id"`
	AuthorName        string           `json:"author_name"`
	AuthorAvatar      string           `json:"author_avatar,omitempty"`
	AuthorDepartment  string           `json:"author_department,omitempty"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Skills            []string         `json:"skills"`
	Departments       []string         `json:"departments"`
	VisibleToAllDepts bool             `json:"visible_to_all_depts"`
	ProjectType       ProjectType      `json:"project_type"`
	MaxStudents       int              `json:"max_students"`
	Deadline          *time.Time       `json:"deadline,omitempty"`
	ModerationStatus  ModerationStatus `json:"moderation_status"`
	ProgressStatus    ProgressStatus   `json:"progress_status"`
	ArchivedAt        *time.Time       `json:"archived_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	// AcceptedCount is filled by reads that need it.
	AcceptedCount int `json:"accepted_count"`
}

// Archived reports whether the project has been soft deleted.
func (p *Project) Archived() bool { return p.ArchivedAt != nil }

// StudentVisible reports whether students can see the project at all:
// approved and not archived.
func (p *Project) StudentVisible() bool {
	return p.ModerationStatus == ModerationApproved && !p.Archived()
}

// VisibleToDepartment reports whether a student of dept may see the project.
func (p *Project) VisibleToDepartment(dept string) bool {
	return p.VisibleToAllDepts || (dept != "" && slices.Contains(p.Departments, dept))
}

// Clone returns a deep copy.
func (p *Project) Clone() *Project {
	c := *p
	c.Skills = slices.Clone(p.Skills)
	c.Departments = slices.Clone(p.Departments)
	if p.Deadline != nil {
		d := *p.Deadline
		c.Deadline = &d
	}
	if p.ArchivedAt != nil {
		a := *p.ArchivedAt
		c.ArchivedAt = &a
	}
	return &c
}

type CreateProjectRequest struct {
	Title             string      `json:"title" validate:"required,min=3,max=255"`
	Description       string      `json:"description" validate:"required,max=10000"`
	Skills            []string    `json:"skills" validate:"omitempty,max=30,dive,required,max=64"`
	Departments       []string    `json:"departments" validate:"omitempty,max=30,dive,required,max=128"`
	VisibleToAllDepts *bool       `json:"visible_to_all_depts"`
	ProjectType       ProjectType `json:"project_type" validate:"required,oneof=PROJECT RESEARCH PAPER_PUBLISH OTHER"`
	MaxStudents       int         `json:"max_students" validate:"required,min=1,max=100"`
	Deadline          *time.Time  `json:"deadline"`
}

type UpdateProjectRequest struct {
	Title             *string      `json:"title" validate:"omitempty,min=3,max=255"`
	Description       *string      `json:"description" validate:"omitempty,max=10000"`
	Skills            []string     `json:"skills" validate:"omitempty,max=30,dive,required,max=64"`
	Departments       []string     `json:"departments" validate:"omitempty,max=30,dive,required,max=128"`
	VisibleToAllDepts *bool        `json:"visible_to_all_depts"`
	ProjectType       *ProjectType `json:"project_type" validate:"omitempty,oneof=PROJECT RESEARCH PAPER_PUBLISH OTHER"`
	MaxStudents       *int         `json:"max_students" validate:"omitempty,min=1,max=100"`
	Deadline          *time.Time   `json:"deadline"`
}

type ProgressRequest struct {
	ProgressStatus ProgressStatus `json:"progress_status" validate:"required,oneof=OPEN IN_PROGRESS COMPLETED"`
}

type ModerateRequest struct {
	Status ModerationStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Reason string           `json:"reason" validate:"max=1000"`
}

type BulkModerateRequest struct {
	IDs    []string         `json:"ids" validate:"required,min=1,max=100,dive,required"`
	Status ModerationStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Reason string           `json:"reason" validate:"max=1000"`
}

type ReopenRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type AdminProgressRequest struct {
	ProgressStatus ProgressStatus `json:"progress_status" validate:"required,oneof=OPEN IN_PROGRESS COMPLETED"`
	Reason         string         `json:"reason" validate:"max=1000"`
}

// ListParams are the listing filters accepted from the query string.
type ListParams struct {
	Cursor           string `form:"cursor"`
	Limit            int    `form:"limit"`
	ProjectType      string `form:"project_type"`
	ProgressStatus   string `form:"progress_status"`
	ModerationStatus string `form:"moderation_status"`
	Search           string `form:"search"`
	Skill            string `form:"skill"`
	IncludeArchived  bool   `form:"include_archived"`
}

// BulkResult reports the outcome of a bulk moderation.
type BulkResult struct {
	Updated []string          `json:"updated"`
	Failed  map[string]string `json:"failed,omitempty"`
}
