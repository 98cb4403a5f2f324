package service

import (
	"context"
	"errors"
	"testing"
	"time"

	apprepo "github.com/ncobase/collab/biz/application/data/repository"
	"github.com/ncobase/collab/biz/comment/data/repository"
	"github.com/ncobase/collab/biz/comment/structs"
	"github.com/ncobase/collab/biz/membership"
	projectrepo "github.com/ncobase/collab/biz/project/data/repository"
	projectstructs "github.com/ncobase/collab/biz/project/structs"
	taskrepo "github.com/ncobase/collab/biz/task/data/repository"
	taskstructs "github.com/ncobase/collab/biz/task/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/logging/logger"
)

func TestCommentsOnProjectAndTask(t *testing.T) {
	ctx := context.Background()
	projects := projectrepo.NewMemoryProjectRepository()
	apps := apprepo.NewMemoryApplicationRepository(projects)
	tasks := taskrepo.NewMemoryTaskRepository()

	now := time.Now().UTC()
	for _, id := range []string{"p1", "p2"} {
		if err := projects.Create(ctx, &projectstructs.Project{
			ID: id, TenantID: "T1", AuthorID: "f1", Title: id, VisibleToAllDepts: true,
			ProjectType: projectstructs.TypeOther, MaxStudents: 1,
			ModerationStatus: projectstructs.ModerationApproved, ProgressStatus: projectstructs.ProgressOpen,
			CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := tasks.Create(ctx, &taskstructs.Task{ID: "t1", TenantID: "T1", ProjectID: "p1", Title: "x", Status: taskstructs.StatusTodo}); err != nil {
		t.Fatal(err)
	}
	if err := tasks.Create(ctx, &taskstructs.Task{ID: "t2", TenantID: "T1", ProjectID: "p2", Title: "y", Status: taskstructs.StatusTodo}); err != nil {
		t.Fatal(err)
	}

	svc := NewService(repository.NewMemoryCommentRepository(), tasks, membership.NewGate(projects, apps, nil, logger.NewNop()), logger.NewNop())
	author := &idstructs.Actor{ID: "f1", Roles: []idstructs.Role{idstructs.RoleFaculty}, Scope: idstructs.Scope{TenantID: "T1", Department: "CS", DisplayName: "Dr. F"}}

	if _, err := svc.Create(ctx, author, "p1", &structs.CreateCommentRequest{Body: "kickoff"}); err != nil {
		t.Fatalf("project comment: %v", err)
	}
	taskID := "t1"
	c, err := svc.Create(ctx, author, "p1", &structs.CreateCommentRequest{Body: "on task", TaskID: &taskID})
	if err != nil {
		t.Fatalf("task comment: %v", err)
	}
	if c.AuthorName != "Dr. F" || c.TaskID == nil || *c.TaskID != "t1" {
		t.Fatalf("comment = %+v", c)
	}

	other := "t2"
	if _, err := svc.Create(ctx, author, "p1", &structs.CreateCommentRequest{Body: "wrong", TaskID: &other}); !errors.Is(err, ecode.ErrValidation) {
		t.Fatalf("foreign task err = %v, want Validation", err)
	}

	all, err := svc.List(ctx, author, "p1", nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("List all = %d, %v", len(all), err)
	}
	onTask, err := svc.List(ctx, author, "p1", &taskID)
	if err != nil || len(onTask) != 1 || onTask[0].Body != "on task" {
		t.Fatalf("List task = %v, %v", onTask, err)
	}

	student := &idstructs.Actor{ID: "s1", Roles: []idstructs.Role{idstructs.RoleStudent}, Scope: idstructs.Scope{TenantID: "T1", Department: "CS"}}
	if _, err := svc.List(ctx, student, "p1", nil); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("non-member err = %v, want Forbidden", err)
	}
}
