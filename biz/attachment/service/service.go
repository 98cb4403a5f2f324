// Package service contains attachment business logic.
package service

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/casdoor/oss"
	"github.com/ncobase/collab/biz/access"
	"github.com/ncobase/collab/biz/attachment/data/repository"
	"github.com/ncobase/collab/biz/attachment/structs"
	"github.com/ncobase/collab/biz/membership"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/nanoid"
	"github.com/ncobase/collab/storage"
)

var errNoStorage = ecode.NewDependency("file storage is not configured", nil)

// Upload is a file received in a multipart request.
type Upload struct {
	FileName string
	FileType string
	Size     int64
	Body     io.Reader
}

type Service struct {
	repo   repository.AttachmentRepository
	gate   *membership.Gate
	store  oss.StorageInterface
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates the service. A nil store disables uploads; URL
// attachments still work.
func NewService(repo repository.AttachmentRepository, gate *membership.Gate, store oss.StorageInterface, log *logger.Logger) *Service {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Service{repo: repo, gate: gate, store: store, logger: log, now: time.Now}
}

// List returns the project's attachments, newest first.
func (s *Service) List(ctx context.Context, actor *idstructs.Actor, projectID string) ([]*structs.Attachment, error) {
	if _, err := s.gate.Load(ctx, actor, projectID, false); err != nil {
		return nil, err
	}
	out, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error(ctx, "Failed to list attachments", "error", err, "project_id", projectID)
		return nil, err
	}
	if out == nil {
		out = []*structs.Attachment{}
	}
	return out, nil
}

// Create registers a file hosted elsewhere.
func (s *Service) Create(ctx context.Context, actor *idstructs.Actor, projectID string, req *structs.CreateAttachmentRequest) (*structs.Attachment, error) {
	a, err := s.gate.Load(ctx, actor, projectID, true)
	if err != nil {
		return nil, err
	}
	att := s.newAttachment(actor, a, req.FileName, req.FileType, req.Size)
	att.FileURL = req.FileURL
	return s.save(ctx, actor, a, att)
}

// Upload stores the file body and registers it.
func (s *Service) Upload(ctx context.Context, actor *idstructs.Actor, projectID string, up *Upload) (*structs.Attachment, error) {
	a, err := s.gate.Load(ctx, actor, projectID, true)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, errNoStorage
	}

	name := path.Base(strings.ReplaceAll(up.FileName, "\\", "/"))
	att := s.newAttachment(actor, a, name, up.FileType, up.Size)
	att.ObjectKey = storage.ObjectKey(att.TenantID, att.ProjectID, name)

	obj, err := s.store.Put(att.ObjectKey, up.Body)
	if err != nil {
		s.logger.Error(ctx, "Failed to store upload", "error", err, "project_id", projectID, "key", att.ObjectKey)
		return nil, ecode.NewDependency("failed to store file", err)
	}
	if obj != nil && obj.Size > 0 {
		att.Size = obj.Size
	}
	// Stored objects are private and served through the member-gated
	// download route.
	att.FileURL = DownloadPath(att.ID)

	saved, err := s.save(ctx, actor, a, att)
	if err != nil {
		s.removeObject(ctx, att.ObjectKey)
		return nil, err
	}
	return saved, nil
}

// DownloadPath is the API path that streams an uploaded file.
func DownloadPath(id string) string {
	return "/v1/attachments/" + id + "/download"
}

func (s *Service) newAttachment(actor *idstructs.Actor, a *membership.Access, name, fileType string, size int64) *structs.Attachment {
	uploader := idstructs.Snapshot(actor)
	return &structs.Attachment{
		ID:           nanoid.PrimaryKey(),
		TenantID:     a.Project.TenantID,
		ProjectID:    a.Project.ID,
		UploaderID:   uploader.ID,
		UploaderName: uploader.Name,
		FileName:     name,
		FileType:     fileType,
		Size:         size,
		CreatedAt:    s.now().UTC(),
	}
}

func (s *Service) save(ctx context.Context, actor *idstructs.Actor, a *membership.Access, att *structs.Attachment) (*structs.Attachment, error) {
	if err := s.repo.Create(ctx, att); err != nil {
		s.logger.Error(ctx, "Failed to create attachment", "error", err, "project_id", att.ProjectID)
		return nil, err
	}
	s.gate.Notify(ctx, event.EventTypeFileUploaded, actor, a.Project, att)
	s.logger.Info(ctx, "Attachment added", "attachment_id", att.ID, "project_id", att.ProjectID, "stored", att.ObjectKey != "")
	return att, nil
}

// Open streams an uploaded file to a member.
func (s *Service) Open(ctx context.Context, actor *idstructs.Actor, id string) (*structs.Attachment, io.ReadCloser, error) {
	att, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.gate.Load(ctx, actor, att.ProjectID, false); err != nil {
		return nil, nil, err
	}
	if att.ObjectKey == "" {
		return nil, nil, ecode.NewNotFound("attachment is hosted externally")
	}
	if s.store == nil {
		return nil, nil, errNoStorage
	}
	rc, err := s.store.GetStream(att.ObjectKey)
	if err != nil {
		return nil, nil, ecode.NewDependency("failed to open file", err)
	}
	return att, rc, nil
}

// Delete removes the attachment and its stored object. The uploader or the
// project author may delete.
func (s *Service) Delete(ctx context.Context, actor *idstructs.Actor, id string) error {
	att, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	a, err := s.gate.Load(ctx, actor, att.ProjectID, true)
	if err != nil {
		return err
	}
	if err := access.CanDeleteAttachment(actor, a.Project, att, a.Member); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, att.ID); err != nil {
		return err
	}
	if att.ObjectKey != "" {
		s.removeObject(ctx, att.ObjectKey)
	}

	s.gate.Notify(ctx, event.EventTypeFileDeleted, actor, a.Project, att)
	s.logger.Info(ctx, "Attachment deleted", "attachment_id", att.ID)
	return nil
}

func (s *Service) removeObject(ctx context.Context, key string) {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(key); err != nil {
		s.logger.Warn(ctx, "Failed to delete stored file", "error", err, "key", key)
	}
}
