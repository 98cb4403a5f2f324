// Package service contains comment business logic.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/ncobase/collab/biz/comment/data/repository"
	"github.com/ncobase/collab/biz/comment/structs"
	"github.com/ncobase/collab/biz/membership"
	taskstructs "github.com/ncobase/collab/biz/task/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/nanoid"
)

// TaskReader resolves the task a comment is attached to.
type TaskReader interface {
	Get(ctx context.Context, id string) (*taskstructs.Task, error)
}

var errTaskNotInProject = ecode.NewValidation(map[string]string{
	"task_id": "The task does not belong to this project.",
})

type Service struct {
	repo   repository.CommentRepository
	tasks  TaskReader
	gate   *membership.Gate
	logger *logger.Logger
	now    func() time.Time
}

func NewService(repo repository.CommentRepository, tasks TaskReader, gate *membership.Gate, log *logger.Logger) *Service {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Service{repo: repo, tasks: tasks, gate: gate, logger: log, now: time.Now}
}

// List returns the project's comments, oldest first, optionally for one task.
func (s *Service) List(ctx context.Context, actor *idstructs.Actor, projectID string, taskID *string) ([]*structs.Comment, error) {
	if _, err := s.gate.Load(ctx, actor, projectID, false); err != nil {
		return nil, err
	}
	out, err := s.repo.List(ctx, projectID, taskID)
	if err != nil {
		s.logger.Error(ctx, "Failed to list comments", "error", err, "project_id", projectID)
		return nil, err
	}
	if out == nil {
		out = []*structs.Comment{}
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, actor *idstructs.Actor, projectID string, req *structs.CreateCommentRequest) (*structs.Comment, error) {
	a, err := s.gate.Load(ctx, actor, projectID, true)
	if err != nil {
		return nil, err
	}
	var taskID *string
	if req.TaskID != nil && *req.TaskID != "" {
		t, err := s.tasks.Get(ctx, *req.TaskID)
		if err != nil {
			if ecode.KindOf(err) == ecode.KindNotFound {
				return nil, errTaskNotInProject
			}
			return nil, err
		}
		if t.ProjectID != a.Project.ID {
			return nil, errTaskNotInProject
		}
		taskID = &t.ID
	}

	author := idstructs.Snapshot(actor)
	c := &structs.Comment{
		ID:           nanoid.PrimaryKey(),
		TenantID:     a.Project.TenantID,
		ProjectID:    a.Project.ID,
		TaskID:       taskID,
		AuthorID:     author.ID,
		AuthorName:   author.Name,
		AuthorAvatar: author.Avatar,
		Body:         strings.TrimSpace(req.Body),
		CreatedAt:    s.now().UTC(),
	}
	if c.Body == "" {
		return nil, ecode.NewValidation(map[string]string{"body": ecode.FieldIsRequired("body")})
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error(ctx, "Failed to create comment", "error", err, "project_id", projectID)
		return nil, err
	}

	s.gate.Notify(ctx, event.EventTypeCommentAdded, actor, a.Project, c)
	s.logger.Info(ctx, "Comment added", "comment_id", c.ID, "project_id", c.ProjectID)
	return c, nil
}
