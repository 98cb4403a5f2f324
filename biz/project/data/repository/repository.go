// Package repository stores projects.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ncobase/collab/biz/access"
	adminstructs "github.com/ncobase/collab/biz/admin/structs"
	"github.com/ncobase/collab/biz/project/structs"
	"github.com/ncobase/collab/data"
	"github.com/ncobase/collab/data/postgres"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/paging"
)

// Query narrows a listing beyond the visibility filter.
type Query struct {
	AuthorID         string
	ProjectType      string
	ProgressStatus   string
	ModerationStatus string
	Search           string
	Skill            string
	IncludeArchived  bool
	// IDs restricts rows to a search result when non-nil.
	IDs []string
}

type ProjectRepository interface {
	Create(ctx context.Context, p *structs.Project) error
	Get(ctx context.Context, id string) (*structs.Project, error)
	// Mutate locks the project, passes a copy to fn and writes it back when
	// fn returns nil. fn runs inside the lock with a context carrying the
	// transaction, so reads made through that context see a stable row.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*structs.Project, error)
	List(ctx context.Context, f access.ProjectFilter, q Query, cursor *paging.Cursor, limit int) ([]*structs.Project, int, error)
	// ModerationCounts and ProgressCounts group by tenant; an empty tenantID
	// covers every tenant.
	ModerationCounts(ctx context.Context, tenantID string) ([]adminstructs.StatusCount, error)
	ProgressCounts(ctx context.Context, tenantID string) ([]adminstructs.StatusCount, error)
}

// MutateFunc edits p in place. Returning ErrUnchanged skips the write.
type MutateFunc func(ctx context.Context, p *structs.Project) error

// ErrUnchanged tells Mutate that fn left the project as it was.
var ErrUnchanged = errors.New("project unchanged")

var errNotFound = ecode.NewNotFound(ecode.NotExist("project"))

const projectColumns = `id, tenant_id, author_id, author_name, author_avatar, author_department,
	title, description, skills, departments, visible_to_all_depts, project_type, max_students,
	deadline, moderation_status, progress_status, archived_at, created_at, updated_at`

type projectRepository struct {
	d *data.Data
}

func NewProjectRepository(d *data.Data) (ProjectRepository, error) {
	if d == nil || d.DB() == nil {
		return nil, errors.New("database is nil")
	}
	return &projectRepository{d: d}, nil
}

func (r *projectRepository) Create(ctx context.Context, p *structs.Project) error {
	_, err := r.d.Querier(ctx).ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, p.ID, p.TenantID, p.AuthorID, p.AuthorName, p.AuthorAvatar, p.AuthorDepartment,
		p.Title, p.Description, nonNil(p.Skills), nonNil(p.Departments), p.VisibleToAllDepts, p.ProjectType, p.MaxStudents,
		p.Deadline, p.ModerationStatus, p.ProgressStatus, p.ArchivedAt, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *projectRepository) Get(ctx context.Context, id string) (*structs.Project, error) {
	row := r.d.Querier(ctx).QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	return p, err
}

// Mutate holds the row lock for the whole read-modify-write. Accepting an
// application takes the same lock, so capacity checks made in fn see every
// committed accept.
func (r *projectRepository) Mutate(ctx context.Context, id string, fn MutateFunc) (*structs.Project, error) {
	var out *structs.Project
	err := r.d.WithTx(ctx, func(ctx context.Context) error {
		q := r.d.Querier(ctx)
		p, err := scanProject(q.QueryRowContext(ctx,
			`SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return errNotFound
		}
		if err != nil {
			return err
		}

		if err := fn(ctx, p); err != nil {
			if errors.Is(err, ErrUnchanged) {
				out = p
				return nil
			}
			return err
		}

		if _, err := q.ExecContext(ctx, `
			UPDATE projects
			SET title = $1, description = $2, skills = $3, departments = $4, visible_to_all_depts = $5,
				project_type = $6, max_students = $7, deadline = $8, moderation_status = $9,
				progress_status = $10, archived_at = $11, updated_at = $12
			WHERE id = $13
		`, p.Title, p.Description, nonNil(p.Skills), nonNil(p.Departments), p.VisibleToAllDepts,
			p.ProjectType, p.MaxStudents, p.Deadline, p.ModerationStatus,
			p.ProgressStatus, p.ArchivedAt, p.UpdatedAt, p.ID); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepository) List(ctx context.Context, f access.ProjectFilter, q Query, cursor *paging.Cursor, limit int) ([]*structs.Project, int, error) {
	if f.None {
		return nil, 0, nil
	}
	where, args := buildWhere(f, q)

	var total int
	if err := r.d.Querier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if cursor != nil {
		args = append(args, cursor.Time, cursor.ID)
		where += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, limit)
	rows, err := r.d.Querier(ctx).QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*structs.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// buildWhere translates the visibility filter and query to SQL.
func buildWhere(f access.ProjectFilter, q Query) (string, []any) {
	conds := []string{"TRUE"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.TenantID != "" {
		conds = append(conds, "tenant_id = "+arg(f.TenantID))
	}
	if f.StudentView {
		conds = append(conds,
			"moderation_status = "+arg(string(structs.ModerationApproved)),
			"archived_at IS NULL",
			"(visible_to_all_depts OR "+arg(f.Department)+" = ANY(departments))")
	} else if !q.IncludeArchived {
		conds = append(conds, "archived_at IS NULL")
	}
	if q.AuthorID != "" {
		conds = append(conds, "author_id = "+arg(q.AuthorID))
	}
	if q.ProjectType != "" {
		conds = append(conds, "project_type = "+arg(q.ProjectType))
	}
	if q.ProgressStatus != "" {
		conds = append(conds, "progress_status = "+arg(q.ProgressStatus))
	}
	if q.ModerationStatus != "" {
		conds = append(conds, "moderation_status = "+arg(q.ModerationStatus))
	}
	if q.Search != "" {
		conds = append(conds, "title ILIKE "+arg("%"+escapeLike(q.Search)+"%"))
	}
	if q.Skill != "" {
		conds = append(conds, arg(q.Skill)+" = ANY(skills)")
	}
	if q.IDs != nil {
		if len(q.IDs) == 0 {
			conds = append(conds, "FALSE")
		} else {
			conds = append(conds, "id = ANY("+arg(q.IDs)+")")
		}
	}
	return strings.Join(conds, " AND "), args
}

func (r *projectRepository) ModerationCounts(ctx context.Context, tenantID string) ([]adminstructs.StatusCount, error) {
	return r.counts(ctx, "moderation_status", tenantID)
}

func (r *projectRepository) ProgressCounts(ctx context.Context, tenantID string) ([]adminstructs.StatusCount, error) {
	return r.counts(ctx, "progress_status", tenantID)
}

func (r *projectRepository) counts(ctx context.Context, column, tenantID string) ([]adminstructs.StatusCount, error) {
	query := `SELECT tenant_id, ` + column + `, COUNT(*) FROM projects WHERE archived_at IS NULL`
	var args []any
	if tenantID != "" {
		query += ` AND tenant_id = $1`
		args = append(args, tenantID)
	}
	query += ` GROUP BY tenant_id, ` + column + ` ORDER BY tenant_id, ` + column

	rows, err := r.d.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []adminstructs.StatusCount
	for rows.Next() {
		var c adminstructs.StatusCount
		if err := rows.Scan(&c.TenantID, &c.Status, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*structs.Project, error) {
	p := &structs.Project{}
	err := s.Scan(&p.ID, &p.TenantID, &p.AuthorID, &p.AuthorName, &p.AuthorAvatar, &p.AuthorDepartment,
		&p.Title, &p.Description, postgres.Array(&p.Skills), postgres.Array(&p.Departments),
		&p.VisibleToAllDepts, &p.ProjectType, &p.MaxStudents, &p.Deadline, &p.ModerationStatus,
		&p.ProgressStatus, &p.ArchivedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
