package access

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
	"time"

	appstructs "github.com/ncobase/collab/biz/application/structs"
	attstructs "github.com/ncobase/collab/biz/attachment/structs"
	"github.com/ncobase/collab/biz/project/structs"
	taskstructs "github.com/ncobase/collab/biz/task/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
)

func actor(id string, role idstructs.Role, tenant, dept string) *idstructs.Actor {
	return &idstructs.Actor{ID: id, Roles: []idstructs.Role{role}, Scope: idstructs.Scope{TenantID: tenant, Department: dept}}
}

func TestCanViewPropertyForStudents(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tenants := []string{"T1", "T2"}
	depts := []string{"CS", "EE", "ME"}
	mods := []structs.ModerationStatus{structs.ModerationPending, structs.ModerationApproved, structs.ModerationRejected}
	now := time.Now()

	for i := 0; i < 5000; i++ {
		s := actor("s", idstructs.RoleStudent, tenants[rng.Intn(2)], depts[rng.Intn(3)])
		p := &structs.Project{
			TenantID:          tenants[rng.Intn(2)],
			ModerationStatus:  mods[rng.Intn(3)],
			VisibleToAllDepts: rng.Intn(2) == 0,
		}
		for _, d := range depts {
			if rng.Intn(2) == 0 {
				p.Departments = append(p.Departments, d)
			}
		}
		if rng.Intn(3) == 0 {
			p.ArchivedAt = &now
		}

		want := p.TenantID == s.Scope.TenantID &&
			p.ModerationStatus == structs.ModerationApproved &&
			p.ArchivedAt == nil &&
			(p.VisibleToAllDepts || slices.Contains(p.Departments, s.Scope.Department))
		got := CanViewProject(s, p) == nil
		if got != want {
			t.Fatalf("canView(%+v, %+v) = %v, want %v", s.Scope, p, got, want)
		}
		if ProjectFilterFor(s).Match(p) != want {
			t.Fatalf("filter disagrees with canView for %+v", p)
		}
	}
}

func TestDepartmentScenario(t *testing.T) {
	p := &structs.Project{
		TenantID:          "T1",
		AuthorID:          "F",
		Departments:       []string{"CS"},
		VisibleToAllDepts: false,
		ModerationStatus:  structs.ModerationApproved,
	}
	cases := []struct {
		name string
		who  *idstructs.Actor
		want bool
	}{
		{"same tenant same dept", actor("A", idstructs.RoleStudent, "T1", "CS"), true},
		{"same tenant other dept", actor("B", idstructs.RoleStudent, "T1", "EE"), false},
		{"other tenant same dept", actor("C", idstructs.RoleStudent, "T2", "CS"), false},
		{"author", actor("F", idstructs.RoleFaculty, "T1", "CS"), true},
		{"other faculty same tenant", actor("G", idstructs.RoleFaculty, "T1", "EE"), true},
		{"head admin other tenant", actor("H", idstructs.RoleHeadAdmin, "T2", ""), false},
		{"super admin", actor("S", idstructs.RoleSuperAdmin, "", ""), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanViewProject(tc.who, p)
			if (err == nil) != tc.want {
				t.Fatalf("err = %v, want visible=%v", err, tc.want)
			}
			if err != nil && !errors.Is(err, ecode.ErrNotFound) {
				t.Fatalf("denial should conceal existence, got %v", err)
			}
		})
	}
}

func TestStaffSeePendingProjectsInTenant(t *testing.T) {
	p := &structs.Project{TenantID: "T1", ModerationStatus: structs.ModerationPending}
	if err := CanViewProject(actor("F", idstructs.RoleFaculty, "T1", "CS"), p); err != nil {
		t.Fatalf("faculty: %v", err)
	}
	if err := CanViewProject(actor("A", idstructs.RoleStudent, "T1", "CS"), p); err == nil {
		t.Fatal("student saw a pending project")
	}
	if f := ProjectFilterFor(actor("X", idstructs.RoleStudent, "", "")); !f.None {
		t.Fatal("actor without tenant should match nothing")
	}
}

func TestCanCreateProject(t *testing.T) {
	if err := CanCreateProject(actor("F", idstructs.RoleFaculty, "T1", "CS")); err != nil {
		t.Fatal(err)
	}
	if err := CanCreateProject(actor("A", idstructs.RoleStudent, "T1", "CS")); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("student create err = %v", err)
	}
	if err := CanCreateProject(actor("F", idstructs.RoleFaculty, "", "CS")); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("incomplete profile err = %v", err)
	}
}

func TestCanManageProject(t *testing.T) {
	p := &structs.Project{TenantID: "T1", AuthorID: "F", ModerationStatus: structs.ModerationApproved, VisibleToAllDepts: true}
	if err := CanManageProject(actor("F", idstructs.RoleFaculty, "T1", "CS"), p); err != nil {
		t.Fatal(err)
	}
	if err := CanManageProject(actor("G", idstructs.RoleFaculty, "T1", "CS"), p); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("other faculty err = %v", err)
	}
	if err := CanManageProject(actor("F2", idstructs.RoleFaculty, "T2", "CS"), p); !errors.Is(err, ecode.ErrNotFound) {
		t.Fatalf("cross tenant err = %v", err)
	}
}

func TestCanApply(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	base := func() *structs.Project {
		return &structs.Project{
			TenantID: "T1", ModerationStatus: structs.ModerationApproved, VisibleToAllDepts: true,
			ProgressStatus: structs.ProgressOpen, MaxStudents: 2,
		}
	}
	student := actor("A", idstructs.RoleStudent, "T1", "CS")

	cases := []struct {
		name  string
		who   *idstructs.Actor
		mut   func(p *structs.Project)
		state ApplyState
		want  error
	}{
		{"ok", student, nil, ApplyState{Now: now}, nil},
		{"faculty", actor("F", idstructs.RoleFaculty, "T1", "CS"), nil, ApplyState{Now: now}, ecode.ErrForbidden},
		{"pending project", student, func(p *structs.Project) { p.ModerationStatus = structs.ModerationPending }, ApplyState{Now: now}, ecode.ErrNotFound},
		{"completed", student, func(p *structs.Project) { p.ProgressStatus = structs.ProgressCompleted }, ApplyState{Now: now}, ecode.ErrConflict},
		{"deadline", student, func(p *structs.Project) { p.Deadline = &past }, ApplyState{Now: now}, ecode.ErrConflict},
		{"full", student, nil, ApplyState{Now: now, AcceptedCount: 2}, ecode.ErrConflict},
		{"duplicate", student, nil, ApplyState{Now: now, AlreadyApplied: true}, ecode.ErrConflict},
		{"other dept", actor("B", idstructs.RoleStudent, "T1", "EE"), func(p *structs.Project) {
			p.VisibleToAllDepts = false
			p.Departments = []string{"CS"}
		}, ApplyState{Now: now}, ecode.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base()
			if tc.mut != nil {
				tc.mut(p)
			}
			err := CanApply(tc.who, p, tc.state)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("err = %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCanDecideApplication(t *testing.T) {
	p := &structs.Project{TenantID: "T1", AuthorID: "F", ModerationStatus: structs.ModerationApproved, VisibleToAllDepts: true}
	pending := &appstructs.Application{TenantID: "T1", Status: appstructs.StatusPending}
	accepted := &appstructs.Application{TenantID: "T1", Status: appstructs.StatusAccepted}

	if err := CanDecideApplication(actor("F", idstructs.RoleFaculty, "T1", ""), p, pending); err != nil {
		t.Fatal(err)
	}
	if err := CanDecideApplication(actor("H", idstructs.RoleHeadAdmin, "T1", ""), p, pending); err != nil {
		t.Fatalf("in-scope admin: %v", err)
	}
	if err := CanDecideApplication(actor("F", idstructs.RoleFaculty, "T1", ""), p, accepted); !errors.Is(err, ecode.ErrConflict) {
		t.Fatalf("non-pending err = %v", err)
	}
	if err := CanDecideApplication(actor("G", idstructs.RoleFaculty, "T1", ""), p, pending); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("other faculty err = %v", err)
	}
}

func TestCanWithdrawApplication(t *testing.T) {
	a := actor("A", idstructs.RoleStudent, "T1", "CS")
	for _, status := range []appstructs.Status{appstructs.StatusAccepted, appstructs.StatusRejected} {
		app := &appstructs.Application{TenantID: "T1", StudentID: "A", Status: status}
		if err := CanWithdrawApplication(a, app); !errors.Is(err, ecode.ErrConflict) {
			t.Fatalf("withdraw %s err = %v", status, err)
		}
	}
	pending := &appstructs.Application{TenantID: "T1", StudentID: "A", Status: appstructs.StatusPending}
	if err := CanWithdrawApplication(a, pending); err != nil {
		t.Fatal(err)
	}
	if err := CanWithdrawApplication(actor("B", idstructs.RoleStudent, "T1", "CS"), pending); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("other student err = %v", err)
	}
	if err := CanWithdrawApplication(actor("A", idstructs.RoleStudent, "T2", "CS"), pending); !errors.Is(err, ecode.ErrNotFound) {
		t.Fatalf("cross tenant err = %v", err)
	}
}

func TestCanMutateTaskIsFieldAware(t *testing.T) {
	p := &structs.Project{TenantID: "T1", AuthorID: "F", ModerationStatus: structs.ModerationApproved, VisibleToAllDepts: true}
	assignee := "A"
	task := &taskstructs.Task{AssignedToID: &assignee}
	a := actor("A", idstructs.RoleStudent, "T1", "CS")
	f := actor("F", idstructs.RoleFaculty, "T1", "CS")

	if err := CanMutateTask(a, p, task, true, []string{"status"}); err != nil {
		t.Fatalf("assignee status: %v", err)
	}
	if err := CanMutateTask(a, p, task, true, []string{"title"}); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("assignee title err = %v", err)
	}
	if err := CanMutateTask(a, p, task, true, []string{"status", "title"}); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("assignee mixed err = %v", err)
	}
	if err := CanMutateTask(f, p, task, true, []string{"title"}); err != nil {
		t.Fatalf("author title: %v", err)
	}
	if err := CanMutateTask(a, p, nil, true, nil); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("member create err = %v", err)
	}
	other := actor("B", idstructs.RoleStudent, "T1", "CS")
	if err := CanMutateTask(other, p, task, true, []string{"status"}); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("unassigned member err = %v", err)
	}
	if err := CanMutateTask(other, p, task, false, []string{"status"}); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("non-member err = %v", err)
	}
}

func TestCanUseCollaboration(t *testing.T) {
	p := &structs.Project{TenantID: "T1", AuthorID: "F", ModerationStatus: structs.ModerationApproved, VisibleToAllDepts: true}
	admin := actor("H", idstructs.RoleHeadAdmin, "T1", "")
	if err := CanUseCollaboration(admin, p, false, false); err != nil {
		t.Fatalf("admin read: %v", err)
	}
	if err := CanUseCollaboration(admin, p, false, true); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("admin write err = %v", err)
	}
	hidden := &structs.Project{TenantID: "T1", AuthorID: "F", ModerationStatus: structs.ModerationPending}
	if err := CanUseCollaboration(actor("A", idstructs.RoleStudent, "T1", "CS"), hidden, false, false); !errors.Is(err, ecode.ErrNotFound) {
		t.Fatalf("hidden err = %v", err)
	}

	// An accepted student keeps access after the project leaves their view.
	member := actor("A", idstructs.RoleStudent, "T1", "CS")
	for _, write := range []bool{false, true} {
		if err := CanUseCollaboration(member, hidden, true, write); err != nil {
			t.Fatalf("member write=%v on hidden project: %v", write, err)
		}
	}
	if err := CanUseCollaboration(actor("A", idstructs.RoleStudent, "T2", "CS"), hidden, true, false); !errors.Is(err, ecode.ErrNotFound) {
		t.Fatalf("member of other tenant err = %v, want NotFound", err)
	}
}

func TestCanDeleteAttachment(t *testing.T) {
	p := &structs.Project{TenantID: "T1", AuthorID: "F", ModerationStatus: structs.ModerationApproved, VisibleToAllDepts: true}
	att := &attstructs.Attachment{UploaderID: "A"}
	if err := CanDeleteAttachment(actor("A", idstructs.RoleStudent, "T1", "CS"), p, att, true); err != nil {
		t.Fatal(err)
	}
	if err := CanDeleteAttachment(actor("F", idstructs.RoleFaculty, "T1", "CS"), p, att, true); err != nil {
		t.Fatal(err)
	}
	if err := CanDeleteAttachment(actor("B", idstructs.RoleStudent, "T1", "CS"), p, att, true); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("other member err = %v", err)
	}
}

func TestAdminScope(t *testing.T) {
	head := actor("H", idstructs.RoleHeadAdmin, "T1", "")
	super := actor("S", idstructs.RoleSuperAdmin, "", "")

	if tenant, err := AdminTenantFilter(head); err != nil || tenant != "T1" {
		t.Fatalf("head filter = %q, %v", tenant, err)
	}
	if tenant, err := AdminTenantFilter(super); err != nil || tenant != "" {
		t.Fatalf("super filter = %q, %v", tenant, err)
	}
	if _, err := AdminTenantFilter(actor("F", idstructs.RoleFaculty, "T1", "")); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("faculty err = %v", err)
	}
	if err := CanAdminister(head, "T2"); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("out of scope err = %v", err)
	}
	if err := CanAdminister(super, "T2"); err != nil {
		t.Fatal(err)
	}
}
