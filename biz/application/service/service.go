// Package service contains application business logic.
package service

import (
	"context"
	"time"

	"github.com/ncobase/collab/biz/access"
	"github.com/ncobase/collab/biz/application/data/repository"
	"github.com/ncobase/collab/biz/application/structs"
	projectstructs "github.com/ncobase/collab/biz/project/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/nanoid"
	"github.com/ncobase/collab/paging"
)

type Service struct {
	repo     repository.ApplicationRepository
	projects repository.ProjectReader
	bus      *event.Bus
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.ApplicationRepository, projects repository.ProjectReader, bus *event.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Service{repo: repo, projects: projects, bus: bus, logger: log, now: time.Now}
}

// Apply creates a PENDING application for the actor.
func (s *Service) Apply(ctx context.Context, actor *idstructs.Actor, projectID string, req *structs.ApplyRequest) (*structs.Application, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	accepted, err := s.repo.CountAccepted(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	applied, err := s.repo.Exists(ctx, p.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := access.CanApply(actor, p, access.ApplyState{
		AcceptedCount:  accepted,
		AlreadyApplied: applied,
		Now:            now,
	}); err != nil {
		return nil, err
	}

	student := idstructs.Snapshot(actor)
	app := &structs.Application{
		ID:                nanoid.PrimaryKey(),
		TenantID:          p.TenantID,
		ProjectID:         p.ID,
		StudentID:         student.ID,
		StudentName:       student.Name,
		StudentAvatar:     student.Avatar,
		StudentDepartment: student.Department,
		StudentYear:       student.Year,
		Status:            structs.StatusPending,
		Message:           req.Message,
		AppliedAt:         now,
		UpdatedAt:         now,
		ProjectTitle:      p.Title,
	}
	// The unique constraint settles concurrent duplicates.
	if err := s.repo.Create(ctx, app); err != nil {
		if ecode.KindOf(err) != ecode.KindConflict {
			s.logger.Error(ctx, "Failed to create application", "error", err, "project_id", p.ID)
		}
		return nil, err
	}

	s.publish(ctx, event.EventTypeNewApplication, actor, p, app)
	s.logger.Info(ctx, "Application submitted", "application_id", app.ID, "project_id", p.ID)
	return app, nil
}

// ListForProject returns a project's applications to its author or an admin.
func (s *Service) ListForProject(ctx context.Context, actor *idstructs.Actor, projectID string, params *structs.ListParams) (*paging.Result[*structs.Application], error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := access.CanListApplications(actor, p); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.Query{ProjectID: p.ID, Status: params.Status}, params)
}

// Mine returns the actor's own applications.
func (s *Service) Mine(ctx context.Context, actor *idstructs.Actor, params *structs.ListParams) (*paging.Result[*structs.Application], error) {
	if !actor.IsStudent() {
		return nil, ecode.NewForbidden("only students have applications")
	}
	return s.list(ctx, repository.Query{StudentID: actor.ID, ProjectID: params.ProjectID, Status: params.Status}, params)
}

// ListForAdmin lists applications in the admin's tenant scope.
func (s *Service) ListForAdmin(ctx context.Context, actor *idstructs.Actor, params *structs.ListParams) (*paging.Result[*structs.Application], error) {
	tenantID, err := access.AdminTenantFilter(actor)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, repository.Query{TenantID: tenantID, ProjectID: params.ProjectID, Status: params.Status}, params)
}

func (s *Service) list(ctx context.Context, q repository.Query, params *structs.ListParams) (*paging.Result[*structs.Application], error) {
	return paging.Paginate(paging.Params{Cursor: params.Cursor, Limit: params.Limit},
		func(cursor *paging.Cursor, limit int) ([]*structs.Application, int, error) {
			return s.repo.List(ctx, q, cursor, limit)
		},
		func(a *structs.Application) (time.Time, string) { return a.AppliedAt, a.ID })
}

// load fetches an application and its project, hiding applications from
// other tenants.
func (s *Service) load(ctx context.Context, actor *idstructs.Actor, id string) (*structs.Application, *projectstructs.Project, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !actor.IsSuperAdmin() && app.TenantID != actor.Scope.TenantID {
		return nil, nil, ecode.NewNotFound(ecode.NotExist("application"))
	}
	p, err := s.projects.Get(ctx, app.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return app, p, nil
}

// Decide accepts or rejects a PENDING application. Accepting is checked
// against capacity atomically by the repository.
func (s *Service) Decide(ctx context.Context, actor *idstructs.Actor, id string, req *structs.StatusRequest) (*structs.Application, error) {
	app, p, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanDecideApplication(actor, p, app); err != nil {
		return nil, err
	}

	var updated *structs.Application
	switch req.Status {
	case structs.StatusAccepted:
		updated, err = s.repo.AcceptWithinCapacity(ctx, app.ID, true)
	case structs.StatusRejected:
		updated, err = s.repo.SetStatus(ctx, app.ID, structs.StatusRejected, true)
	default:
		return nil, ecode.NewValidation(map[string]string{"status": "The field 'status' must be one of [ACCEPTED REJECTED]."})
	}
	if err != nil {
		if ecode.KindOf(err) != ecode.KindConflict {
			s.logger.Error(ctx, "Failed to decide application", "error", err, "application_id", app.ID)
		}
		return nil, err
	}

	s.publish(ctx, event.EventTypeApplicationStatus, actor, p, updated)
	s.logger.Info(ctx, "Application decided", "application_id", updated.ID, "status", updated.Status)
	return updated, nil
}

// Override forces any status on behalf of an admin. Capacity still holds
// for ACCEPTED. The caller records the audit entry.
func (s *Service) Override(ctx context.Context, actor *idstructs.Actor, id string, req *structs.OverrideRequest) (before, after *structs.Application, err error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := access.CanAdminister(actor, app.TenantID); err != nil {
		return nil, nil, err
	}
	p, err := s.projects.Get(ctx, app.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	if req.Status == structs.StatusAccepted {
		after, err = s.repo.AcceptWithinCapacity(ctx, app.ID, false)
	} else {
		after, err = s.repo.SetStatus(ctx, app.ID, req.Status, false)
	}
	if err != nil {
		if ecode.KindOf(err) != ecode.KindConflict {
			s.logger.Error(ctx, "Failed to override application", "error", err, "application_id", app.ID)
		}
		return nil, nil, err
	}

	if app.Status != after.Status {
		s.publish(ctx, event.EventTypeApplicationStatus, actor, p, after)
	}
	s.logger.Info(ctx, "Application status overridden",
		"application_id", app.ID, "from", app.Status, "to", after.Status, "reason", req.Reason)
	return app, after, nil
}

// Withdraw deletes the actor's own PENDING application.
func (s *Service) Withdraw(ctx context.Context, actor *idstructs.Actor, id string) error {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := access.CanWithdrawApplication(actor, app); err != nil {
		return err
	}
	if err := s.repo.Withdraw(ctx, app.ID); err != nil {
		return err
	}

	if p, err := s.projects.Get(ctx, app.ProjectID); err == nil {
		s.publish(ctx, event.EventTypeApplicationWithdrawn, actor, p, app)
	}
	s.logger.Info(ctx, "Application withdrawn", "application_id", app.ID)
	return nil
}

// publish tells the project author, on their applications channel, and the
// applicant about a change.
func (s *Service) publish(ctx context.Context, t event.EventType, actor *idstructs.Actor, p *projectstructs.Project, app *structs.Application) {
	if s.bus == nil {
		return
	}
	audience := event.Audience{ApplicationsOf: p.AuthorID}
	if app.StudentID != actor.ID {
		audience.Users = []string{app.StudentID}
	}
	c := *app
	_ = s.bus.Publish(ctx, &event.Event{
		Type:      t,
		TenantID:  p.TenantID,
		ProjectID: p.ID,
		ActorID:   actor.ID,
		Payload:   &c,
		Audience:  audience,
	})
}
