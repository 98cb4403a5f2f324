// Package repository stores comments.
package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ncobase/collab/biz/comment/structs"
	"github.com/ncobase/collab/data"
)

type CommentRepository interface {
	Create(ctx context.Context, c *structs.Comment) error
	// List returns a project's comments oldest first, optionally only those
	// attached to taskID.
	List(ctx context.Context, projectID string, taskID *string) ([]*structs.Comment, error)
}

const commentColumns = `id, tenant_id, project_id, task_id, author_id, author_name, author_avatar, body, created_at`

type commentRepository struct {
	d *data.Data
}

func NewCommentRepository(d *data.Data) (CommentRepository, error) {
	if d == nil || d.DB() == nil {
		return nil, errors.New("database is nil")
	}
	return &commentRepository{d: d}, nil
}

func (r *commentRepository) Create(ctx context.Context, c *structs.Comment) error {
	_, err := r.d.Querier(ctx).ExecContext(ctx, `
		INSERT INTO comments (`+commentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.TenantID, c.ProjectID, c.TaskID, c.AuthorID, c.AuthorName, c.AuthorAvatar, c.Body, c.CreatedAt)
	return err
}

func (r *commentRepository) List(ctx context.Context, projectID string, taskID *string) ([]*structs.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE project_id = $1`
	args := []any{projectID}
	if taskID != nil {
		query += ` AND task_id = $2`
		args = append(args, *taskID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.d.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*structs.Comment
	for rows.Next() {
		c := &structs.Comment{}
		if err := rows.Scan(&c.ID, &c.TenantID, &c.ProjectID, &c.TaskID, &c.AuthorID, &c.AuthorName,
			&c.AuthorAvatar, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MemoryCommentRepository is the in-process twin of the SQL repository.
type MemoryCommentRepository struct {
	comments []structs.Comment
	mu       sync.RWMutex
}

func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{}
}

func (r *MemoryCommentRepository) Create(_ context.Context, c *structs.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, *c)
	return nil
}

func (r *MemoryCommentRepository) List(_ context.Context, projectID string, taskID *string) ([]*structs.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*structs.Comment
	for i := range r.comments {
		c := r.comments[i]
		if c.ProjectID != projectID {
			continue
		}
		if taskID != nil && (c.TaskID == nil || *c.TaskID != *taskID) {
			continue
		}
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
