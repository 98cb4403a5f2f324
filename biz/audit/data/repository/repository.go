// Package repository stores audit log entries.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ncobase/collab/biz/audit/structs"
	"github.com/ncobase/collab/data"
	"github.com/ncobase/collab/data/postgres"
	"github.com/ncobase/collab/paging"
)

// Query narrows audit listings. An empty TenantID covers every tenant.
type Query struct {
	TenantID   string
	Action     string
	EntityType string
	EntityID   string
}

// AuditRepository is append-only.
type AuditRepository interface {
	Create(ctx context.Context, e *structs.Entry) error
	List(ctx context.Context, q Query, cursor *paging.Cursor, limit int) ([]*structs.Entry, int, error)
}

const auditColumns = `id, tenant_id, actor_id, actor_roles, action, entity_type, entity_id, before, after, reason, created_at`

type auditRepository struct {
	d *data.Data
}

func NewAuditRepository(d *data.Data) (AuditRepository, error) {
	if d == nil || d.DB() == nil {
		return nil, errors.New("database is nil")
	}
	return &auditRepository{d: d}, nil
}

func (r *auditRepository) Create(ctx context.Context, e *structs.Entry) error {
	roles := e.ActorRoles
	if roles == nil {
		roles = []string{}
	}
	_, err := r.d.Querier(ctx).ExecContext(ctx, `
		INSERT INTO audit_logs (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.TenantID, e.ActorID, roles, e.Action, e.EntityType, e.EntityID,
		nullJSON(e.Before), nullJSON(e.After), e.Reason, e.CreatedAt)
	return err
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func (r *auditRepository) List(ctx context.Context, q Query, cursor *paging.Cursor, limit int) ([]*structs.Entry, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if q.TenantID != "" {
		add("tenant_id = $%d", q.TenantID)
	}
	if q.Action != "" {
		add("action = $%d", q.Action)
	}
	if q.EntityType != "" {
		add("entity_type = $%d", q.EntityType)
	}
	if q.EntityID != "" {
		add("entity_id = $%d", q.EntityID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.d.Querier(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if cursor != nil {
		args = append(args, cursor.Time, cursor.ID)
		cond := fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args))
		if clause == "" {
			clause = " WHERE " + cond
		} else {
			clause += " AND " + cond
		}
	}
	args = append(args, limit)
	rows, err := r.d.Querier(ctx).QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs`+clause+
			fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*structs.Entry
	for rows.Next() {
		e := &structs.Entry{}
		var before, after []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ActorID, postgres.Array(&e.ActorRoles), &e.Action,
			&e.EntityType, &e.EntityID, &before, &after, &e.Reason, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.Before, e.After = before, after
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// MemoryAuditRepository is the in-process twin of the SQL repository.
type MemoryAuditRepository struct {
	entries []structs.Entry
	mu      sync.RWMutex
}

func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Create(_ context.Context, e *structs.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *MemoryAuditRepository) List(_ context.Context, q Query, cursor *paging.Cursor, limit int) ([]*structs.Entry, int, error) {
	r.mu.RLock()
	var matched []structs.Entry
	for _, e := range r.entries {
		switch {
		case q.TenantID != "" && e.TenantID != q.TenantID,
			q.Action != "" && string(e.Action) != q.Action,
			q.EntityType != "" && e.EntityType != q.EntityType,
			q.EntityID != "" && e.EntityID != q.EntityID:
			continue
		}
		matched = append(matched, e)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	var out []*structs.Entry
	for i := range matched {
		e := &matched[i]
		if !cursor.After(e.CreatedAt, e.ID) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, len(matched), nil
}
