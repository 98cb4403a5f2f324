// Package service contains project business logic.
package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/ncobase/collab/biz/access"
	"github.com/ncobase/collab/biz/project/data/repository"
	"github.com/ncobase/collab/biz/project/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/nanoid"
	"github.com/ncobase/collab/paging"
)

// AcceptedCounter reports how many students each project has accepted.
type AcceptedCounter interface {
	CountAccepted(ctx context.Context, projectID string) (int, error)
	AcceptedCounts(ctx context.Context, projectIDs []string) (map[string]int, error)
}

// Searcher narrows listings by full-text query.
type Searcher interface {
	Search(ctx context.Context, tenantID, query string, limit int) ([]string, error)
}

// searchCandidates caps how many index hits feed one listing.
const searchCandidates = 1000

type Service struct {
	repo     repository.ProjectRepository
	accepted AcceptedCounter
	search   Searcher
	bus      *event.Bus
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.ProjectRepository, accepted AcceptedCounter, bus *event.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Service{repo: repo, accepted: accepted, bus: bus, logger: log, now: time.Now}
}

// UseSearch routes the search filter through a full-text index instead of
// title matching in the repository.
func (s *Service) UseSearch(search Searcher) {
	s.search = search
}

func (s *Service) Create(ctx context.Context, actor *idstructs.Actor, req *structs.CreateProjectRequest) (*structs.Project, error) {
	if err := access.CanCreateProject(actor); err != nil {
		return nil, err
	}

	visibleToAll := true
	if req.VisibleToAllDepts != nil {
		visibleToAll = *req.VisibleToAllDepts
	}
	departments := cleanTags(req.Departments)
	if !visibleToAll && len(departments) == 0 {
		return nil, errDepartmentsRequired
	}

	author := idstructs.Snapshot(actor)
	now := s.now().UTC()
	p := &structs.Project{
		ID:                nanoid.PrimaryKey(),
		TenantID:          actor.Scope.TenantID,
		AuthorID:          author.ID,
		AuthorName:        author.Name,
		AuthorAvatar:      author.Avatar,
		AuthorDepartment:  author.Department,
		Title:             strings.TrimSpace(req.Title),
		Description:       req.Description,
		Skills:            cleanTags(req.Skills),
		Departments:       departments,
		VisibleToAllDepts: visibleToAll,
		ProjectType:       req.ProjectType,
		MaxStudents:       req.MaxStudents,
		Deadline:          req.Deadline,
		ModerationStatus:  structs.ModerationPending,
		ProgressStatus:    structs.ProgressOpen,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error(ctx, "Failed to create project", "error", err, "tenant_id", p.TenantID)
		return nil, err
	}

	s.publish(ctx, event.EventTypeNewProject, actor, p)
	s.logger.Info(ctx, "Project created", "project_id", p.ID, "tenant_id", p.TenantID, "author_id", p.AuthorID)
	return p, nil
}

var errDepartmentsRequired = ecode.NewValidation(map[string]string{
	"departments": "At least one department is required when the project is not visible to all departments.",
})

// cleanTags trims, drops blanks and removes duplicates, keeping order.
func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// List returns the projects the actor may see, newest first.
func (s *Service) List(ctx context.Context, actor *idstructs.Actor, params *structs.ListParams) (*paging.Result[*structs.Project], error) {
	q := repository.Query{
		ProjectType:      params.ProjectType,
		ProgressStatus:   params.ProgressStatus,
		ModerationStatus: params.ModerationStatus,
		Search:           params.Search,
		Skill:            params.Skill,
		IncludeArchived:  params.IncludeArchived,
	}
	return s.list(ctx, access.ProjectFilterFor(actor), q, params)
}

// Mine returns the actor's own projects in every moderation state.
func (s *Service) Mine(ctx context.Context, actor *idstructs.Actor, params *structs.ListParams) (*paging.Result[*structs.Project], error) {
	if !actor.IsFaculty() {
		return nil, ecode.NewForbidden("only faculty own projects")
	}
	q := repository.Query{
		AuthorID:         actor.ID,
		ProjectType:      params.ProjectType,
		ProgressStatus:   params.ProgressStatus,
		ModerationStatus: params.ModerationStatus,
		Search:           params.Search,
		Skill:            params.Skill,
		IncludeArchived:  true,
	}
	return s.list(ctx, access.ProjectFilter{TenantID: actor.Scope.TenantID}, q, params)
}

// ListForAdmin lists projects in the admin's tenant scope.
func (s *Service) ListForAdmin(ctx context.Context, actor *idstructs.Actor, params *structs.ListParams) (*paging.Result[*structs.Project], error) {
	tenantID, err := access.AdminTenantFilter(actor)
	if err != nil {
		return nil, err
	}
	q := repository.Query{
		ProjectType:      params.ProjectType,
		ProgressStatus:   params.ProgressStatus,
		ModerationStatus: params.ModerationStatus,
		Search:           params.Search,
		Skill:            params.Skill,
		IncludeArchived:  params.IncludeArchived,
	}
	return s.list(ctx, access.ProjectFilter{TenantID: tenantID}, q, params)
}

func (s *Service) list(ctx context.Context, f access.ProjectFilter, q repository.Query, params *structs.ListParams) (*paging.Result[*structs.Project], error) {
	if q.Search != "" && s.search != nil && !f.None {
		ids, err := s.search.Search(ctx, f.TenantID, q.Search, searchCandidates)
		if err != nil {
			// Title matching in the repository still answers the query.
			s.logger.Warn(ctx, "Search index unavailable", "error", err)
		} else {
			q.IDs, q.Search = ids, ""
			if q.IDs == nil {
				q.IDs = []string{}
			}
		}
	}
	result, err := paging.Paginate(paging.Params{Cursor: params.Cursor, Limit: params.Limit},
		func(cursor *paging.Cursor, limit int) ([]*structs.Project, int, error) {
			return s.repo.List(ctx, f, q, cursor, limit)
		},
		func(p *structs.Project) (time.Time, string) { return p.CreatedAt, p.ID })
	if err != nil {
		s.logger.Error(ctx, "Failed to list projects", "error", err)
		return nil, err
	}
	if err := s.fillAccepted(ctx, result.Items); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) fillAccepted(ctx context.Context, projects []*structs.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	counts, err := s.accepted.AcceptedCounts(ctx, ids)
	if err != nil {
		s.logger.Error(ctx, "Failed to count accepted students", "error", err)
		return err
	}
	for _, p := range projects {
		p.AcceptedCount = counts[p.ID]
	}
	return nil
}

// Get returns a project the actor may see. Hidden projects are NotFound.
func (s *Service) Get(ctx context.Context, actor *idstructs.Actor, id string) (*structs.Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewProject(actor, p); err != nil {
		return nil, err
	}
	if p.AcceptedCount, err = s.accepted.CountAccepted(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies an owner edit. The capacity check runs under the project
// lock so it cannot interleave with an accept.
func (s *Service) Update(ctx context.Context, actor *idstructs.Actor, id string, req *structs.UpdateProjectRequest) (*structs.Project, error) {
	var accepted int
	p, err := s.repo.Mutate(ctx, id, func(ctx context.Context, p *structs.Project) error {
		if err := access.CanManageProject(actor, p); err != nil {
			return err
		}
		if p.Archived() {
			return ecode.NewConflict("project is archived")
		}
		var err error
		if accepted, err = s.accepted.CountAccepted(ctx, p.ID); err != nil {
			return err
		}
		return s.applyUpdate(p, req, accepted)
	})
	if err != nil {
		if ecode.KindOf(err) == ecode.KindInternal {
			s.logger.Error(ctx, "Failed to update project", "error", err, "project_id", id)
		}
		return nil, err
	}
	p.AcceptedCount = accepted

	s.publish(ctx, event.EventTypeProjectUpdated, actor, p)
	s.logger.Info(ctx, "Project updated", "project_id", p.ID)
	return p, nil
}

// applyUpdate copies the owner-editable fields of req onto p.
func (s *Service) applyUpdate(p *structs.Project, req *structs.UpdateProjectRequest, accepted int) error {
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Skills != nil {
		p.Skills = cleanTags(req.Skills)
	}
	if req.Departments != nil {
		p.Departments = cleanTags(req.Departments)
	}
	if req.VisibleToAllDepts != nil {
		p.VisibleToAllDepts = *req.VisibleToAllDepts
	}
	if req.ProjectType != nil {
		p.ProjectType = *req.ProjectType
	}
	if req.MaxStudents != nil {
		if *req.MaxStudents < accepted {
			return ecode.NewConflict("max_students is below the number of accepted students")
		}
		p.MaxStudents = *req.MaxStudents
	}
	if req.Deadline != nil {
		p.Deadline = req.Deadline
	}
	if !p.VisibleToAllDepts && len(p.Departments) == 0 {
		return errDepartmentsRequired
	}
	p.UpdatedAt = s.now().UTC()
	return nil
}

// Archive soft deletes the project. Archiving twice is a no-op.
func (s *Service) Archive(ctx context.Context, actor *idstructs.Actor, id string) (*structs.Project, error) {
	var before *structs.Project
	p, err := s.repo.Mutate(ctx, id, func(_ context.Context, p *structs.Project) error {
		if err := access.CanManageProject(actor, p); err != nil {
			return err
		}
		if p.Archived() {
			return repository.ErrUnchanged
		}
		before = p.Clone()
		now := s.now().UTC()
		p.ArchivedAt, p.UpdatedAt = &now, now
		return nil
	})
	if err != nil {
		if ecode.KindOf(err) == ecode.KindInternal {
			s.logger.Error(ctx, "Failed to archive project", "error", err, "project_id", id)
		}
		return nil, err
	}
	if before == nil {
		return p, nil
	}

	// Students could see the project until now, so they hear about it.
	s.publishAs(ctx, event.EventTypeProjectArchived, actor, p, before.StudentVisible())
	s.logger.Info(ctx, "Project archived", "project_id", p.ID)
	return p, nil
}

// SetProgress moves progress forward. A request that does not advance the
// status leaves the project unchanged and returns it.
func (s *Service) SetProgress(ctx context.Context, actor *idstructs.Actor, id string, req *structs.ProgressRequest) (*structs.Project, error) {
	changed := false
	p, err := s.repo.Mutate(ctx, id, func(ctx context.Context, p *structs.Project) error {
		if err := access.CanManageProject(actor, p); err != nil {
			return err
		}
		if !p.ProgressStatus.Advances(req.ProgressStatus) {
			s.logger.Debug(ctx, "Progress change ignored", "project_id", p.ID,
				"current", p.ProgressStatus, "requested", req.ProgressStatus)
			return repository.ErrUnchanged
		}
		if p.Archived() {
			return ecode.NewConflict("project is archived")
		}
		p.ProgressStatus = req.ProgressStatus
		p.UpdatedAt = s.now().UTC()
		changed = true
		return nil
	})
	if err != nil {
		if ecode.KindOf(err) == ecode.KindInternal {
			s.logger.Error(ctx, "Failed to update progress", "error", err, "project_id", id)
		}
		return nil, err
	}
	if !changed {
		return p, nil
	}

	s.publish(ctx, event.EventTypeProjectUpdated, actor, p)
	s.logger.Info(ctx, "Project progress changed", "project_id", p.ID, "progress_status", p.ProgressStatus)
	return p, nil
}

func (s *Service) publish(ctx context.Context, t event.EventType, actor *idstructs.Actor, p *structs.Project) {
	s.publishAs(ctx, t, actor, p, p.StudentVisible())
}

// publishAs broadcasts a project event. The author hears about their own
// project whatever its departments.
func (s *Service) publishAs(ctx context.Context, t event.EventType, actor *idstructs.Actor, p *structs.Project, toStudents bool) {
	if s.bus == nil {
		return
	}
	audience := event.ProjectAudience(p.VisibleToAllDepts, p.Departments, toStudents)
	audience.Users = []string{p.AuthorID}
	// Publish drops and logs when the queue is full.
	_ = s.bus.Publish(ctx, &event.Event{
		Type:      t,
		TenantID:  p.TenantID,
		ProjectID: p.ID,
		ActorID:   actor.ID,
		Payload:   p.Clone(),
		Audience:  audience,
	})
}
