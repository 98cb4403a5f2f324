// Package repository stores tasks.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"github.com/ncobase/collab/biz/task/structs"
	"github.com/ncobase/collab/data"
	"github.com/ncobase/collab/ecode"
)

type TaskRepository interface {
	Create(ctx context.Context, t *structs.Task) error
	Get(ctx context.Context, id string) (*structs.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*structs.Task, error)
	Update(ctx context.Context, t *structs.Task) error
	Delete(ctx context.Context, id string) error
}

var errNotFound = ecode.NewNotFound(ecode.NotExist("task"))

const taskColumns = `id, tenant_id, project_id, title, description, assigned_to_id, status, created_by, created_at, updated_at`

type taskRepository struct {
	d *data.Data
}

func NewTaskRepository(d *data.Data) (TaskRepository, error) {
	if d == nil || d.DB() == nil {
		return nil, errors.New("database is nil")
	}
	return &taskRepository{d: d}, nil
}

func (r *taskRepository) Create(ctx context.Context, t *structs.Task) error {
	_, err := r.d.Querier(ctx).ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.TenantID, t.ProjectID, t.Title, t.Description, t.AssignedToID, t.Status, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *taskRepository) Get(ctx context.Context, id string) (*structs.Task, error) {
	row := r.d.Querier(ctx).QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	return t, err
}

func (r *taskRepository) ListByProject(ctx context.Context, projectID string) ([]*structs.Task, error) {
	rows, err := r.d.Querier(ctx).QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY created_at, id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*structs.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, t *structs.Task) error {
	res, err := r.d.Querier(ctx).ExecContext(ctx, `
		UPDATE tasks SET title = $1, description = $2, assigned_to_id = $3, status = $4, updated_at = $5
		WHERE id = $6
	`, t.Title, t.Description, t.AssignedToID, t.Status, t.UpdatedAt, t.ID)
	return affectedOne(res, err)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.d.Querier(ctx).ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return affectedOne(res, err)
}

func affectedOne(res sql.Result, err error) error {
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

func scanTask(s scanner) (*structs.Task, error) {
	t := &structs.Task{}
	if err := s.Scan(&t.ID, &t.TenantID, &t.ProjectID, &t.Title, &t.Description, &t.AssignedToID,
		&t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// MemoryTaskRepository is the in-process twin of the SQL repository.
type MemoryTaskRepository struct {
	tasks map[string]*structs.Task
	mu    sync.RWMutex
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[string]*structs.Task)}
}

func clone(t *structs.Task) *structs.Task {
	c := *t
	if t.AssignedToID != nil {
		id := *t.AssignedToID
		c.AssignedToID = &id
	}
	return &c
}

func (r *MemoryTaskRepository) Create(_ context.Context, t *structs.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = clone(t)
	return nil
}

func (r *MemoryTaskRepository) Get(_ context.Context, id string) (*structs.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, errNotFound
	}
	return clone(t), nil
}

func (r *MemoryTaskRepository) ListByProject(_ context.Context, projectID string) ([]*structs.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*structs.Task
	for _, t := range r.tasks {
		if t.ProjectID == projectID {
			out = append(out, clone(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, t *structs.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return errNotFound
	}
	r.tasks[t.ID] = clone(t)
	return nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return errNotFound
	}
	delete(r.tasks, id)
	return nil
}
