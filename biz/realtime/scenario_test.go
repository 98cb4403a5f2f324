package realtime

import (
	"context"
	"encoding/json"
	"slices"
	"testing"
	"time"

	adminservice "github.com/ncobase/collab/biz/admin/service"
	apprepo "github.com/ncobase/collab/biz/application/data/repository"
	appservice "github.com/ncobase/collab/biz/application/service"
	auditrepo "github.com/ncobase/collab/biz/audit/data/repository"
	auditservice "github.com/ncobase/collab/biz/audit/service"
	projectrepo "github.com/ncobase/collab/biz/project/data/repository"
	projectservice "github.com/ncobase/collab/biz/project/service"
	projectstructs "github.com/ncobase/collab/biz/project/structs"
	"github.com/ncobase/collab/concurrency/worker"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
)

func eventTypes(t *testing.T, c *Client) []string {
	t.Helper()
	var out []string
	for _, frame := range drain(c) {
		var ev struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(frame), &ev); err != nil {
			t.Fatalf("decode %s: %v", frame, err)
		}
		out = append(out, ev.Type)
	}
	return out
}

func TestDepartmentProjectLifecycleFanOut(t *testing.T) {
	nop := logger.NewNop()
	bus := event.NewBus(&worker.Config{MaxWorkers: 1, QueueSize: 64}, nop)
	hub := NewHub(nop)
	bus.SubscribeAll(hub.Handle)
	bus.Start()

	projects := projectrepo.NewMemoryProjectRepository()
	apps := apprepo.NewMemoryApplicationRepository(projects)
	projectSvc := projectservice.NewService(projects, apps, bus, nop)
	adminSvc := adminservice.NewService(projects, appservice.NewService(apps, projects, bus, nop), apps,
		auditservice.NewService(auditrepo.NewMemoryAuditRepository(), nop), bus, nop)

	author := actor("f1", idstructs.RoleFaculty, "T1", "CS")
	head := actor("h1", idstructs.RoleHeadAdmin, "T1", "")
	clients := map[string]*Client{
		"author":        attach(hub, author),
		"cs faculty":    attach(hub, actor("f2", idstructs.RoleFaculty, "T1", "CS")),
		"ee faculty":    attach(hub, actor("f3", idstructs.RoleFaculty, "T1", "EE")),
		"head admin":    attach(hub, head),
		"cs student":    attach(hub, actor("s1", idstructs.RoleStudent, "T1", "CS")),
		"ee student":    attach(hub, actor("s2", idstructs.RoleStudent, "T1", "EE")),
		"other tenant":  attach(hub, actor("s3", idstructs.RoleStudent, "T2", "CS")),
		"no department": attach(hub, actor("s4", idstructs.RoleStudent, "T1", "")),
	}

	ctx := context.Background()
	visibleToAll := false
	p, err := projectSvc.Create(ctx, author, &projectstructs.CreateProjectRequest{
		Title: "Compilers", Description: "d", ProjectType: projectstructs.TypeProject, MaxStudents: 1,
		VisibleToAllDepts: &visibleToAll, Departments: []string{"CS"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := adminSvc.Moderate(ctx, head, p.ID, &projectstructs.ModerateRequest{Status: projectstructs.ModerationApproved}); err != nil {
		t.Fatalf("Moderate: %v", err)
	}

	drainCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	bus.Shutdown(drainCtx)

	staff := []string{string(event.EventTypeNewProject), string(event.EventTypeProjectModerated)}
	want := map[string][]string{
		"author":        staff,
		"cs faculty":    staff,
		"head admin":    staff,
		"cs student":    {string(event.EventTypeProjectModerated), string(event.EventTypeNewProject)},
		"ee faculty":    nil,
		"ee student":    nil,
		"other tenant":  nil,
		"no department": nil,
	}
	for name, c := range clients {
		if got := eventTypes(t, c); !slices.Equal(got, want[name]) {
			t.Errorf("%s received %v, want %v", name, got, want[name])
		}
	}
}
