package service

import (
	"context"
	"errors"
	"testing"
	"time"

	apprepo "github.com/ncobase/collab/biz/application/data/repository"
	appstructs "github.com/ncobase/collab/biz/application/structs"
	"github.com/ncobase/collab/biz/membership"
	projectrepo "github.com/ncobase/collab/biz/project/data/repository"
	projectstructs "github.com/ncobase/collab/biz/project/structs"
	"github.com/ncobase/collab/biz/task/data/repository"
	"github.com/ncobase/collab/biz/task/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/logging/logger"
)

func newActor(id string, role idstructs.Role, dept string) *idstructs.Actor {
	return &idstructs.Actor{
		ID:    id,
		Roles: []idstructs.Role{role},
		Scope: idstructs.Scope{TenantID: "T1", Department: dept, DisplayName: id},
	}
}

type fixture struct {
	svc      *Service
	projects *projectrepo.MemoryProjectRepository
	author   *idstructs.Actor
	student  *idstructs.Actor
	outsider *idstructs.Actor
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	projects := projectrepo.NewMemoryProjectRepository()
	apps := apprepo.NewMemoryApplicationRepository(projects)

	now := time.Now().UTC()
	if err := projects.Create(ctx, &projectstructs.Project{
		ID: "p1", TenantID: "T1", AuthorID: "f1", Title: "Robotics",
		VisibleToAllDepts: true, ProjectType: projectstructs.TypeResearch, MaxStudents: 2,
		ModerationStatus: projectstructs.ModerationApproved, ProgressStatus: projectstructs.ProgressOpen,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatal(err)
	}
	if err := apps.Create(ctx, &appstructs.Application{
		ID: "a1", TenantID: "T1", ProjectID: "p1", StudentID: "s1", Status: appstructs.StatusPending, AppliedAt: now,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := apps.AcceptWithinCapacity(ctx, "a1", true); err != nil {
		t.Fatal(err)
	}

	gate := membership.NewGate(projects, apps, nil, logger.NewNop())
	return &fixture{
		svc:      NewService(repository.NewMemoryTaskRepository(), gate, logger.NewNop()),
		projects: projects,
		author:   newActor("f1", idstructs.RoleFaculty, "EE"),
		student:  newActor("s1", idstructs.RoleStudent, "CS"),
		outsider: newActor("s2", idstructs.RoleStudent, "CS"),
	}
}

func ptr[T any](v T) *T { return &v }

func TestAssigneeMayChangeOnlyStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	task, err := f.svc.Create(ctx, f.author, "p1", &structs.CreateTaskRequest{Title: "Build arm", AssignedToID: ptr("s1")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Status != structs.StatusTodo {
		t.Fatalf("status = %s, want TODO", task.Status)
	}

	got, err := f.svc.Update(ctx, f.student, task.ID, &structs.UpdateTaskRequest{Status: ptr(structs.StatusInProgress)})
	if err != nil {
		t.Fatalf("assignee status change: %v", err)
	}
	if got.Status != structs.StatusInProgress {
		t.Fatalf("status = %s", got.Status)
	}

	_, err = f.svc.Update(ctx, f.student, task.ID, &structs.UpdateTaskRequest{Title: ptr("Renamed")})
	if !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("assignee title change err = %v, want Forbidden", err)
	}
	_, err = f.svc.Update(ctx, f.student, task.ID, &structs.UpdateTaskRequest{
		Title: ptr("Renamed"), Status: ptr(structs.StatusCompleted),
	})
	if !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("mixed change err = %v, want Forbidden", err)
	}

	got, err = f.svc.Update(ctx, f.author, task.ID, &structs.UpdateTaskRequest{Title: ptr("Renamed")})
	if err != nil || got.Title != "Renamed" {
		t.Fatalf("author title change = %+v, %v", got, err)
	}
}

func TestMemberCannotTouchUnassignedTask(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task, err := f.svc.Create(ctx, f.author, "p1", &structs.CreateTaskRequest{Title: "Unassigned"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Update(ctx, f.student, task.ID, &structs.UpdateTaskRequest{Status: ptr(structs.StatusCompleted)}); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("err = %v, want Forbidden", err)
	}
	if err := f.svc.Delete(ctx, f.student, task.ID); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("delete by student err = %v, want Forbidden", err)
	}
	if err := f.svc.Delete(ctx, f.author, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestNonMembersAreForbidden(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	if _, err := f.svc.List(ctx, f.outsider, "p1"); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("List err = %v, want Forbidden", err)
	}
	if _, err := f.svc.Create(ctx, f.student, "p1", &structs.CreateTaskRequest{Title: "x"}); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("student create err = %v, want Forbidden", err)
	}

	tasks, err := f.svc.List(ctx, f.student, "p1")
	if err != nil || len(tasks) != 0 {
		t.Fatalf("member List = %v, %v", tasks, err)
	}
}

func TestAssigneeMustBeAccepted(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Create(context.Background(), f.author, "p1", &structs.CreateTaskRequest{Title: "x", AssignedToID: ptr("s2")})
	var e *ecode.Error
	if !errors.As(err, &e) || e.Kind != ecode.KindValidation || e.Fields["assigned_to_id"] == "" {
		t.Fatalf("err = %v, want assigned_to_id validation error", err)
	}
}

func TestMembersKeepAccessWhenProjectIsHidden(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, f.author, "p1", &structs.CreateTaskRequest{Title: "Wire sensors", AssignedToID: ptr("s1")}); err != nil {
		t.Fatal(err)
	}

	hide := []struct {
		name string
		edit func(p *projectstructs.Project)
	}{
		{"reopened", func(p *projectstructs.Project) { p.ModerationStatus = projectstructs.ModerationPending }},
		{"department removed", func(p *projectstructs.Project) {
			p.ModerationStatus = projectstructs.ModerationApproved
			p.VisibleToAllDepts, p.Departments = false, []string{"EE"}
		}},
	}
	for _, h := range hide {
		t.Run(h.name, func(t *testing.T) {
			if _, err := f.projects.Mutate(ctx, "p1", func(_ context.Context, p *projectstructs.Project) error {
				h.edit(p)
				return nil
			}); err != nil {
				t.Fatal(err)
			}

			tasks, err := f.svc.List(ctx, f.student, "p1")
			if err != nil || len(tasks) != 1 {
				t.Fatalf("member List = %d tasks, %v", len(tasks), err)
			}
			if _, err := f.svc.Update(ctx, f.student, tasks[0].ID, &structs.UpdateTaskRequest{Status: ptr(structs.StatusInProgress)}); err != nil {
				t.Fatalf("member status change: %v", err)
			}
			if _, err := f.svc.List(ctx, f.outsider, "p1"); !errors.Is(err, ecode.ErrNotFound) {
				t.Fatalf("outsider List err = %v, want NotFound", err)
			}
		})
	}
}
