package server

import (
	apprepo "github.com/ncobase/collab/biz/application/data/repository"
	attachmentrepo "github.com/ncobase/collab/biz/attachment/data/repository"
	auditrepo "github.com/ncobase/collab/biz/audit/data/repository"
	commentrepo "github.com/ncobase/collab/biz/comment/data/repository"
	projectrepo "github.com/ncobase/collab/biz/project/data/repository"
	taskrepo "github.com/ncobase/collab/biz/task/data/repository"
	"github.com/ncobase/collab/data"
)

// Repositories groups the storage of every module.
type Repositories struct {
	Projects     projectrepo.ProjectRepository
	Applications apprepo.ApplicationRepository
	Tasks        taskrepo.TaskRepository
	Comments     commentrepo.CommentRepository
	Attachments  attachmentrepo.AttachmentRepository
	Audit        auditrepo.AuditRepository
}

// NewRepositories builds the SQL repositories on d.
func NewRepositories(d *data.Data) (*Repositories, error) {
	var (
		r   Repositories
		err error
	)
	if r.Projects, err = projectrepo.NewProjectRepository(d); err != nil {
		return nil, err
	}
	if r.Applications, err = apprepo.NewApplicationRepository(d); err != nil {
		return nil, err
	}
	if r.Tasks, err = taskrepo.NewTaskRepository(d); err != nil {
		return nil, err
	}
	if r.Comments, err = commentrepo.NewCommentRepository(d); err != nil {
		return nil, err
	}
	if r.Attachments, err = attachmentrepo.NewAttachmentRepository(d); err != nil {
		return nil, err
	}
	if r.Audit, err = auditrepo.NewAuditRepository(d); err != nil {
		return nil, err
	}
	return &r, nil
}

// NewMemoryRepositories builds in-process repositories for tests and local
// runs without a database.
func NewMemoryRepositories() *Repositories {
	projects := projectrepo.NewMemoryProjectRepository()
	return &Repositories{
		Projects:     projects,
		Applications: apprepo.NewMemoryApplicationRepository(projects),
		Tasks:        taskrepo.NewMemoryTaskRepository(),
		Comments:     commentrepo.NewMemoryCommentRepository(),
		Attachments:  attachmentrepo.NewMemoryAttachmentRepository(),
		Audit:        auditrepo.NewMemoryAuditRepository(),
	}
}
