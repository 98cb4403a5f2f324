// Package repository stores attachment metadata.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"github.com/ncobase/collab/biz/attachment/structs"
	"github.com/ncobase/collab/data"
	"github.com/ncobase/collab/ecode"
)

type AttachmentRepository interface {
	Create(ctx context.Context, a *structs.Attachment) error
	Get(ctx context.Context, id string) (*structs.Attachment, error)
	ListByProject(ctx context.Context, projectID string) ([]*structs.Attachment, error)
	Delete(ctx context.Context, id string) error
}

var errNotFound = ecode.NewNotFound(ecode.NotExist("attachment"))

const attachmentColumns = `id, tenant_id, project_id, uploader_id, uploader_name, file_name, file_url,
	object_key, file_type, size, created_at`

type attachmentRepository struct {
	d *data.Data
}

func NewAttachmentRepository(d *data.Data) (AttachmentRepository, error) {
	if d == nil || d.DB() == nil {
		return nil, errors.New("database is nil")
	}
	return &attachmentRepository{d: d}, nil
}

func (r *attachmentRepository) Create(ctx context.Context, a *structs.Attachment) error {
	_, err := r.d.Querier(ctx).ExecContext(ctx, `
		INSERT INTO attachments (`+attachmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.TenantID, a.ProjectID, a.UploaderID, a.UploaderName, a.FileName, a.FileURL,
		a.ObjectKey, a.FileType, a.Size, a.CreatedAt)
	return err
}

func (r *attachmentRepository) Get(ctx context.Context, id string) (*structs.Attachment, error) {
	row := r.d.Querier(ctx).QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE id = $1`, id)
	a, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	return a, err
}

func (r *attachmentRepository) ListByProject(ctx context.Context, projectID string) ([]*structs.Attachment, error) {
	rows, err := r.d.Querier(ctx).QueryContext(ctx, `
		SELECT `+attachmentColumns+` FROM attachments WHERE project_id = $1 ORDER BY created_at DESC, id DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*structs.Attachment
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *attachmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.d.Querier(ctx).ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*structs.Attachment, error) {
	a := &structs.Attachment{}
	if err := s.Scan(&a.ID, &a.TenantID, &a.ProjectID, &a.UploaderID, &a.UploaderName, &a.FileName,
		&a.FileURL, &a.ObjectKey, &a.FileType, &a.Size, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// MemoryAttachmentRepository is the in-process twin of the SQL repository.
type MemoryAttachmentRepository struct {
	items map[string]structs.Attachment
	mu    sync.RWMutex
}

func NewMemoryAttachmentRepository() *MemoryAttachmentRepository {
	return &MemoryAttachmentRepository{items: make(map[string]structs.Attachment)}
}

func (r *MemoryAttachmentRepository) Create(_ context.Context, a *structs.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[a.ID] = *a
	return nil
}

func (r *MemoryAttachmentRepository) Get(_ context.Context, id string) (*structs.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, errNotFound
	}
	return &a, nil
}

func (r *MemoryAttachmentRepository) ListByProject(_ context.Context, projectID string) ([]*structs.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*structs.Attachment
	for _, a := range r.items {
		if a.ProjectID == projectID {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryAttachmentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return errNotFound
	}
	delete(r.items, id)
	return nil
}
