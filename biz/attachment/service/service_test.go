package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	apprepo "github.com/ncobase/collab/biz/application/data/repository"
	appstructs "github.com/ncobase/collab/biz/application/structs"
	"github.com/ncobase/collab/biz/attachment/data/repository"
	"github.com/ncobase/collab/biz/attachment/structs"
	"github.com/ncobase/collab/biz/membership"
	projectrepo "github.com/ncobase/collab/biz/project/data/repository"
	projectstructs "github.com/ncobase/collab/biz/project/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/storage"
)

func newActor(id string, role idstructs.Role) *idstructs.Actor {
	return &idstructs.Actor{
		ID:    id,
		Roles: []idstructs.Role{role},
		Scope: idstructs.Scope{TenantID: "T1", Department: "CS", DisplayName: "Name " + id},
	}
}

func setup(t *testing.T) (*Service, *storage.LocalFileSystem) {
	t.Helper()
	ctx := context.Background()
	projects := projectrepo.NewMemoryProjectRepository()
	apps := apprepo.NewMemoryApplicationRepository(projects)
	now := time.Now().UTC()
	if err := projects.Create(ctx, &projectstructs.Project{
		ID: "p1", TenantID: "T1", AuthorID: "f1", Title: "Vision",
		VisibleToAllDepts: true, ProjectType: projectstructs.TypeProject, MaxStudents: 3,
		ModerationStatus: projectstructs.ModerationApproved, ProgressStatus: projectstructs.ProgressOpen,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"s1", "s2"} {
		if err := apps.Create(ctx, &appstructs.Application{
			ID: "a-" + id, TenantID: "T1", ProjectID: "p1", StudentID: id, Status: appstructs.StatusPending, AppliedAt: now,
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := apps.AcceptWithinCapacity(ctx, "a-"+id, true); err != nil {
			t.Fatal(err)
		}
	}

	fs, err := storage.NewFileSystem(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	gate := membership.NewGate(projects, apps, nil, logger.NewNop())
	return NewService(repository.NewMemoryAttachmentRepository(), gate, fs, logger.NewNop()), fs
}

func TestUploadOpenDelete(t *testing.T) {
	svc, fs := setup(t)
	ctx := context.Background()
	s1 := newActor("s1", idstructs.RoleStudent)

	att, err := svc.Upload(ctx, s1, "p1", &Upload{
		FileName: "../Report Final.PDF",
		FileType: "application/pdf",
		Body:     strings.NewReader("%PDF-1.4"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if att.FileName != "Report Final.PDF" || att.UploaderName != "Name s1" || att.Size != 8 {
		t.Fatalf("attachment = %+v", att)
	}
	if att.FileURL != DownloadPath(att.ID) {
		t.Fatalf("file url = %q", att.FileURL)
	}
	if !strings.HasPrefix(att.ObjectKey, "t1/p1/") {
		t.Fatalf("object key = %q", att.ObjectKey)
	}

	_, rc, err := svc.Open(ctx, newActor("f1", idstructs.RoleFaculty), att.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "%PDF-1.4" {
		t.Fatalf("body = %q", body)
	}

	if err := svc.Delete(ctx, newActor("s2", idstructs.RoleStudent), att.ID); !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("delete by other member err = %v, want Forbidden", err)
	}
	if err := svc.Delete(ctx, newActor("f1", idstructs.RoleFaculty), att.ID); err != nil {
		t.Fatalf("delete by author: %v", err)
	}
	if _, err := fs.Get(att.ObjectKey); err == nil {
		t.Fatal("stored object still present after delete")
	}
}

func TestCreateFromURL(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	s2 := newActor("s2", idstructs.RoleStudent)

	att, err := svc.Create(ctx, s2, "p1", &structs.CreateAttachmentRequest{
		FileName: "brief.docx", FileURL: "https://files.example.edu/brief.docx", Size: 10,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := svc.Open(ctx, s2, att.ID); !errors.Is(err, ecode.ErrNotFound) {
		t.Fatalf("Open external err = %v, want NotFound", err)
	}

	list, err := svc.List(ctx, s2, "p1")
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if err := svc.Delete(ctx, s2, att.ID); err != nil {
		t.Fatalf("uploader delete: %v", err)
	}
}

func TestNonMemberCannotAttach(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.Create(context.Background(), newActor("s9", idstructs.RoleStudent), "p1", &structs.CreateAttachmentRequest{
		FileName: "x", FileURL: "https://example.edu/x",
	})
	if !errors.Is(err, ecode.ErrForbidden) {
		t.Fatalf("err = %v, want Forbidden", err)
	}
}
