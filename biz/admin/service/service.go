// Package service implements tenant-scoped administration: moderation,
// overrides, analytics and the audit log. Every mutation is audited after it
// commits.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/ncobase/collab/biz/access"
	"github.com/ncobase/collab/biz/admin/structs"
	appservice "github.com/ncobase/collab/biz/application/service"
	appstructs "github.com/ncobase/collab/biz/application/structs"
	auditservice "github.com/ncobase/collab/biz/audit/service"
	auditstructs "github.com/ncobase/collab/biz/audit/structs"
	projectrepo "github.com/ncobase/collab/biz/project/data/repository"
	projectstructs "github.com/ncobase/collab/biz/project/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/paging"
)

// ApplicationCounter feeds the application part of the analytics.
type ApplicationCounter interface {
	StatusCounts(ctx context.Context, tenantID string) ([]structs.StatusCount, error)
}

type Service struct {
	projects     projectrepo.ProjectRepository
	applications *appservice.Service
	appCounts    ApplicationCounter
	audit        *auditservice.Service
	bus          *event.Bus
	logger       *logger.Logger
	now          func() time.Time
}

func NewService(
	projects projectrepo.ProjectRepository,
	applications *appservice.Service,
	appCounts ApplicationCounter,
	audit *auditservice.Service,
	bus *event.Bus,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Service{
		projects:     projects,
		applications: applications,
		appCounts:    appCounts,
		audit:        audit,
		bus:          bus,
		logger:       log,
		now:          time.Now,
	}
}

// mutateProject edits a project in the admin's scope under the project
// lock. fn sees the current row and returns projectrepo.ErrUnchanged to skip
// the write. before is nil when nothing changed.
func (s *Service) mutateProject(ctx context.Context, actor *idstructs.Actor, id string, fn func(p *projectstructs.Project) error) (p, before *projectstructs.Project, err error) {
	if _, err := access.AdminTenantFilter(actor); err != nil {
		return nil, nil, err
	}
	p, err = s.projects.Mutate(ctx, id, func(_ context.Context, p *projectstructs.Project) error {
		if err := access.CanAdminister(actor, p.TenantID); err != nil {
			return err
		}
		snapshot := p.Clone()
		if err := fn(p); err != nil {
			return err
		}
		before = snapshot
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return p, before, nil
}

// Moderate approves or rejects a project awaiting approval.
func (s *Service) Moderate(ctx context.Context, actor *idstructs.Actor, id string, req *projectstructs.ModerateRequest) (*projectstructs.Project, error) {
	return s.moderate(ctx, actor, id, req.Status, req.Reason, auditstructs.ActionModerate)
}

// BulkModerate applies one decision to many projects. Each project is
// handled on its own; failures are reported, not fatal.
func (s *Service) BulkModerate(ctx context.Context, actor *idstructs.Actor, req *projectstructs.BulkModerateRequest) (*structs.BulkResult, error) {
	if _, err := access.AdminTenantFilter(actor); err != nil {
		return nil, err
	}
	result := &structs.BulkResult{Updated: []string{}, Failed: map[string]string{}}
	seen := make(map[string]bool, len(req.IDs))
	for _, id := range req.IDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := s.moderate(ctx, actor, id, req.Status, req.Reason, auditstructs.ActionBulkModerate); err != nil {
			result.Failed[id] = failure(err)
			continue
		}
		result.Updated = append(result.Updated, id)
	}
	s.logger.Info(ctx, "Bulk moderation finished",
		"status", req.Status, "updated", len(result.Updated), "failed", len(result.Failed))
	return result, nil
}

func failure(err error) string {
	if ecode.KindOf(err) == ecode.KindInternal {
		return "internal error"
	}
	var e *ecode.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return string(ecode.KindOf(err))
}

func (s *Service) moderate(ctx context.Context, actor *idstructs.Actor, id string, status projectstructs.ModerationStatus, reason string, action auditstructs.Action) (*projectstructs.Project, error) {
	if status != projectstructs.ModerationApproved && status != projectstructs.ModerationRejected {
		return nil, ecode.NewValidation(map[string]string{"status": "The field 'status' must be one of [APPROVED REJECTED]."})
	}
	p, before, err := s.mutateProject(ctx, actor, id, func(p *projectstructs.Project) error {
		if p.ModerationStatus != projectstructs.ModerationPending {
			return ecode.NewConflict("project is not awaiting moderation")
		}
		p.ModerationStatus = status
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "Failed to moderate project", err, id)
		return nil, err
	}

	s.audit.Record(ctx, actor, action, auditstructs.EntityProject, p.ID, p.TenantID, before, p, reason)
	s.publish(ctx, event.EventTypeProjectModerated, actor, p, s.projectAudience(p, p.StudentVisible()))
	if p.StudentVisible() {
		// Staff heard of the project when it was created; students first
		// learn about it on approval.
		audience := event.ProjectAudience(p.VisibleToAllDepts, p.Departments, true)
		audience.StudentsOnly = true
		s.publish(ctx, event.EventTypeNewProject, actor, p, audience)
	}
	s.logger.Info(ctx, "Project moderated", "project_id", p.ID, "status", status)
	return p, nil
}

// Reopen puts a project back into moderation and clears its archive mark.
func (s *Service) Reopen(ctx context.Context, actor *idstructs.Actor, id string, req *projectstructs.ReopenRequest) (*projectstructs.Project, error) {
	p, before, err := s.mutateProject(ctx, actor, id, func(p *projectstructs.Project) error {
		if p.ModerationStatus == projectstructs.ModerationPending && !p.Archived() {
			return ecode.NewConflict("project is already awaiting moderation")
		}
		p.ModerationStatus = projectstructs.ModerationPending
		p.ArchivedAt = nil
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "Failed to reopen project", err, id)
		return nil, err
	}

	s.audit.Record(ctx, actor, auditstructs.ActionReopen, auditstructs.EntityProject, p.ID, p.TenantID, before, p, req.Reason)
	// Students who could see it are told it is gone from their view.
	s.publish(ctx, event.EventTypeProjectModerated, actor, p, s.projectAudience(p, before.StudentVisible()))
	s.logger.Info(ctx, "Project reopened", "project_id", p.ID)
	return p, nil
}

// Archive soft deletes a project on behalf of an admin. Archiving twice is a
// no-op and is not audited.
func (s *Service) Archive(ctx context.Context, actor *idstructs.Actor, id string, reason string) (*projectstructs.Project, error) {
	p, before, err := s.mutateProject(ctx, actor, id, func(p *projectstructs.Project) error {
		if p.Archived() {
			return projectrepo.ErrUnchanged
		}
		now := s.now().UTC()
		p.ArchivedAt = &now
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "Failed to archive project", err, id)
		return nil, err
	}
	if before == nil {
		return p, nil
	}

	s.audit.Record(ctx, actor, auditstructs.ActionArchive, auditstructs.EntityProject, p.ID, p.TenantID, before, p, reason)
	s.publish(ctx, event.EventTypeProjectArchived, actor, p, s.projectAudience(p, before.StudentVisible()))
	s.logger.Info(ctx, "Project archived by admin", "project_id", p.ID)
	return p, nil
}

// SetProgress overrides the progress status in either direction.
func (s *Service) SetProgress(ctx context.Context, actor *idstructs.Actor, id string, req *projectstructs.AdminProgressRequest) (*projectstructs.Project, error) {
	p, before, err := s.mutateProject(ctx, actor, id, func(p *projectstructs.Project) error {
		if p.ProgressStatus == req.ProgressStatus {
			return projectrepo.ErrUnchanged
		}
		p.ProgressStatus = req.ProgressStatus
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "Failed to override progress", err, id)
		return nil, err
	}
	if before == nil {
		return p, nil
	}

	s.audit.Record(ctx, actor, auditstructs.ActionProgressOverride, auditstructs.EntityProject, p.ID, p.TenantID, before, p, req.Reason)
	s.publish(ctx, event.EventTypeProjectUpdated, actor, p, s.projectAudience(p, p.StudentVisible()))
	s.logger.Info(ctx, "Project progress overridden", "project_id", p.ID,
		"from", before.ProgressStatus, "to", p.ProgressStatus)
	return p, nil
}

func (s *Service) logFailure(ctx context.Context, msg string, err error, projectID string) {
	if ecode.KindOf(err) == ecode.KindInternal {
		s.logger.Error(ctx, msg, "error", err, "project_id", projectID)
	}
}

// OverrideApplication forces an application status. Capacity still holds.
func (s *Service) OverrideApplication(ctx context.Context, actor *idstructs.Actor, id string, req *appstructs.OverrideRequest) (*appstructs.Application, error) {
	before, after, err := s.applications.Override(ctx, actor, id, req)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, auditstructs.ActionApplicationOverride, auditstructs.EntityApplication,
		after.ID, after.TenantID, before, after, req.Reason)
	return after, nil
}

// Analytics summarizes projects and applications in the admin's scope.
// SUPER_ADMIN gets a row per tenant.
func (s *Service) Analytics(ctx context.Context, actor *idstructs.Actor) (*structs.Analytics, error) {
	tenantID, err := access.AdminTenantFilter(actor)
	if err != nil {
		return nil, err
	}
	moderation, err := s.projects.ModerationCounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	progress, err := s.projects.ProgressCounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	apps, err := s.appCounts.StatusCounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	out := &structs.Analytics{
		TenantID:          tenantID,
		ProjectModeration: nonNil(moderation),
		ProjectProgress:   nonNil(progress),
		Applications:      nonNil(apps),
	}
	for _, c := range moderation {
		out.Totals.Projects += c.Count
		if c.Status == string(projectstructs.ModerationPending) {
			out.Totals.PendingModeration += c.Count
		}
	}
	for _, c := range apps {
		out.Totals.Applications += c.Count
		if c.Status == string(appstructs.StatusAccepted) {
			out.Totals.AcceptedApplications += c.Count
		}
	}
	return out, nil
}

func nonNil(in []structs.StatusCount) []structs.StatusCount {
	if in == nil {
		return []structs.StatusCount{}
	}
	return in
}

// AuditLogs lists audit entries in the admin's scope.
func (s *Service) AuditLogs(ctx context.Context, actor *idstructs.Actor, params *auditstructs.ListParams) (*paging.Result[*auditstructs.Entry], error) {
	return s.audit.List(ctx, actor, params)
}

// projectAudience is the tenant broadcast plus the project's author.
func (s *Service) projectAudience(p *projectstructs.Project, toStudents bool) event.Audience {
	a := event.ProjectAudience(p.VisibleToAllDepts, p.Departments, toStudents)
	a.Users = []string{p.AuthorID}
	return a
}

func (s *Service) publish(ctx context.Context, t event.EventType, actor *idstructs.Actor, p *projectstructs.Project, audience event.Audience) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, &event.Event{
		Type:      t,
		TenantID:  p.TenantID,
		ProjectID: p.ID,
		ActorID:   actor.ID,
		Payload:   p.Clone(),
		Audience:  audience,
	})
}
