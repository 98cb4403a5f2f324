// Package service contains task business logic.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/ncobase/collab/biz/access"
	"github.com/ncobase/collab/biz/membership"
	"github.com/ncobase/collab/biz/task/data/repository"
	"github.com/ncobase/collab/biz/task/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/nanoid"
)

var errAssignee = ecode.NewValidation(map[string]string{
	"assigned_to_id": "The assignee must be an accepted student of the project.",
})

type Service struct {
	repo   repository.TaskRepository
	gate   *membership.Gate
	logger *logger.Logger
	now    func() time.Time
}

func NewService(repo repository.TaskRepository, gate *membership.Gate, log *logger.Logger) *Service {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Service{repo: repo, gate: gate, logger: log, now: time.Now}
}

// List returns the project's tasks, oldest first.
func (s *Service) List(ctx context.Context, actor *idstructs.Actor, projectID string) ([]*structs.Task, error) {
	if _, err := s.gate.Load(ctx, actor, projectID, false); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error(ctx, "Failed to list tasks", "error", err, "project_id", projectID)
		return nil, err
	}
	if tasks == nil {
		tasks = []*structs.Task{}
	}
	return tasks, nil
}

// Create adds a task. Only the project author creates tasks.
func (s *Service) Create(ctx context.Context, actor *idstructs.Actor, projectID string, req *structs.CreateTaskRequest) (*structs.Task, error) {
	a, err := s.gate.Load(ctx, actor, projectID, true)
	if err != nil {
		return nil, err
	}
	if err := access.CanMutateTask(actor, a.Project, nil, a.Member, nil); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, projectID, req.AssignedToID); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = structs.StatusTodo
	}
	now := s.now().UTC()
	t := &structs.Task{
		ID:           nanoid.PrimaryKey(),
		TenantID:     a.Project.TenantID,
		ProjectID:    a.Project.ID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		AssignedToID: blankToNil(req.AssignedToID),
		Status:       status,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.Error(ctx, "Failed to create task", "error", err, "project_id", projectID)
		return nil, err
	}

	s.gate.Notify(ctx, event.EventTypeTaskCreated, actor, a.Project, t)
	s.logger.Info(ctx, "Task created", "task_id", t.ID, "project_id", t.ProjectID)
	return t, nil
}

// Update applies the requested fields. The assignee may change only status.
func (s *Service) Update(ctx context.Context, actor *idstructs.Actor, id string, req *structs.UpdateTaskRequest) (*structs.Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a, err := s.gate.Load(ctx, actor, t.ProjectID, true)
	if err != nil {
		return nil, err
	}
	fields := req.Fields()
	if err := access.CanMutateTask(actor, a.Project, t, a.Member, fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return t, nil
	}

	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	switch {
	case req.ClearAssignee:
		t.AssignedToID = nil
	case req.AssignedToID != nil:
		if err := s.checkAssignee(ctx, t.ProjectID, req.AssignedToID); err != nil {
			return nil, err
		}
		t.AssignedToID = blankToNil(req.AssignedToID)
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	t.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, t); err != nil {
		s.logger.Error(ctx, "Failed to update task", "error", err, "task_id", t.ID)
		return nil, err
	}

	s.gate.Notify(ctx, event.EventTypeTaskUpdated, actor, a.Project, t)
	s.logger.Info(ctx, "Task updated", "task_id", t.ID, "fields", fields)
	return t, nil
}

// Delete removes a task. Only the project author deletes tasks.
func (s *Service) Delete(ctx context.Context, actor *idstructs.Actor, id string) error {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	a, err := s.gate.Load(ctx, actor, t.ProjectID, true)
	if err != nil {
		return err
	}
	if err := access.CanMutateTask(actor, a.Project, nil, a.Member, nil); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, t.ID); err != nil {
		return err
	}

	s.gate.Notify(ctx, event.EventTypeTaskDeleted, actor, a.Project, t)
	s.logger.Info(ctx, "Task deleted", "task_id", t.ID)
	return nil
}

func (s *Service) checkAssignee(ctx context.Context, projectID string, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	ok, err := s.gate.IsAccepted(ctx, projectID, *id)
	if err != nil {
		return err
	}
	if !ok {
		return errAssignee
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
