// Package repository stores applications and answers membership queries.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	adminstructs "github.com/ncobase/collab/biz/admin/structs"
	"github.com/ncobase/collab/biz/application/structs"
	"github.com/ncobase/collab/data"
	"github.com/ncobase/collab/data/postgres"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/paging"
)

// Query narrows application listings.
type Query struct {
	TenantID  string
	ProjectID string
	StudentID string
	Status    string
}

type ApplicationRepository interface {
	// Create fails with Conflict when the student already applied.
	Create(ctx context.Context, a *structs.Application) error
	Get(ctx context.Context, id string) (*structs.Application, error)
	Exists(ctx context.Context, projectID, studentID string) (bool, error)
	List(ctx context.Context, q Query, cursor *paging.Cursor, limit int) ([]*structs.Application, int, error)
	CountAccepted(ctx context.Context, projectID string) (int, error)
	AcceptedCounts(ctx context.Context, projectIDs []string) (map[string]int, error)
	// AcceptWithinCapacity moves the application to ACCEPTED only while the
	// project has room, checked and written atomically. With fromPending the
	// application must still be PENDING.
	AcceptWithinCapacity(ctx context.Context, id string, fromPending bool) (*structs.Application, error)
	// SetStatus moves the application to a non-ACCEPTED status.
	SetStatus(ctx context.Context, id string, to structs.Status, fromPending bool) (*structs.Application, error)
	// Withdraw deletes a PENDING application.
	Withdraw(ctx context.Context, id string) error
	// IsMember reports whether userID authored the project or holds an
	// ACCEPTED application on it.
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
	IsAccepted(ctx context.Context, projectID, studentID string) (bool, error)
	MemberIDs(ctx context.Context, projectID string) ([]string, error)
	StatusCounts(ctx context.Context, tenantID string) ([]adminstructs.StatusCount, error)
}

const uniqueConstraint = "uq_applications_project_student"

var (
	errNotFound   = ecode.NewNotFound(ecode.NotExist("application"))
	errDuplicate  = ecode.NewConflict("already applied to this project")
	errNotPending = ecode.NewConflict("application is no longer pending")
	errFull       = ecode.NewConflict("project is full")
)

const applicationColumns = `a.id, a.tenant_id, a.project_id, a.student_id, a.student_name, a.student_avatar,
	a.student_department, a.student_year, a.status, a.message, a.applied_at, a.updated_at, p.title`

type applicationRepository struct {
	d *data.Data
}

func NewApplicationRepository(d *data.Data) (ApplicationRepository, error) {
	if d == nil || d.DB() == nil {
		return nil, errors.New("database is nil")
	}
	return &applicationRepository{d: d}, nil
}

func (r *applicationRepository) Create(ctx context.Context, a *structs.Application) error {
	_, err := r.d.Querier(ctx).ExecContext(ctx, `
		INSERT INTO applications (id, tenant_id, project_id, student_id, student_name, student_avatar,
			student_department, student_year, status, message, applied_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, a.ID, a.TenantID, a.ProjectID, a.StudentID, a.StudentName, a.StudentAvatar,
		a.StudentDepartment, a.StudentYear, a.Status, a.Message, a.AppliedAt, a.UpdatedAt)
	if postgres.IsUniqueViolation(err, uniqueConstraint) {
		return errDuplicate
	}
	return err
}

func (r *applicationRepository) Get(ctx context.Context, id string) (*structs.Application, error) {
	row := r.d.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications a JOIN projects p ON p.id = a.project_id
		WHERE a.id = $1`, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	return a, err
}

func (r *applicationRepository) Exists(ctx context.Context, projectID, studentID string) (bool, error) {
	var exists bool
	err := r.d.Querier(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM applications WHERE project_id = $1 AND student_id = $2)
	`, projectID, studentID).Scan(&exists)
	return exists, err
}

func (r *applicationRepository) List(ctx context.Context, q Query, cursor *paging.Cursor, limit int) ([]*structs.Application, int, error) {
	conds := []string{"TRUE"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.TenantID != "" {
		conds = append(conds, "a.tenant_id = "+arg(q.TenantID))
	}
	if q.ProjectID != "" {
		conds = append(conds, "a.project_id = "+arg(q.ProjectID))
	}
	if q.StudentID != "" {
		conds = append(conds, "a.student_id = "+arg(q.StudentID))
	}
	if q.Status != "" {
		conds = append(conds, "a.status = "+arg(q.Status))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.d.Querier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications a WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if cursor != nil {
		where += fmt.Sprintf(" AND (a.applied_at, a.id) < (%s, %s)", arg(cursor.Time), arg(cursor.ID))
	}
	limitArg := arg(limit)
	rows, err := r.d.Querier(ctx).QueryContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications a JOIN projects p ON p.id = a.project_id
		WHERE `+where+`
		ORDER BY a.applied_at DESC, a.id DESC
		LIMIT `+limitArg, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*structs.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *applicationRepository) CountAccepted(ctx context.Context, projectID string) (int, error) {
	var n int
	err := r.d.Querier(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM applications WHERE project_id = $1 AND status = $2
	`, projectID, structs.StatusAccepted).Scan(&n)
	return n, err
}

func (r *applicationRepository) AcceptedCounts(ctx context.Context, projectIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}
	rows, err := r.d.Querier(ctx).QueryContext(ctx, `
		SELECT project_id, COUNT(*) FROM applications
		WHERE project_id = ANY($1) AND status = $2
		GROUP BY project_id
	`, projectIDs, structs.StatusAccepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// AcceptWithinCapacity locks the project row so concurrent accepts on the
// same project serialize, then counts and updates inside that lock.
func (r *applicationRepository) AcceptWithinCapacity(ctx context.Context, id string, fromPending bool) (*structs.Application, error) {
	err := r.d.WithTx(ctx, func(ctx context.Context) error {
		q := r.d.Querier(ctx)

		var projectID string
		if err := q.QueryRowContext(ctx,
			`SELECT project_id FROM applications WHERE id = $1`, id).Scan(&projectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errNotFound
			}
			return err
		}

		var maxStudents int
		if err := q.QueryRowContext(ctx,
			`SELECT max_students FROM projects WHERE id = $1 FOR UPDATE`, projectID).Scan(&maxStudents); err != nil {
			return err
		}

		var status structs.Status
		if err := q.QueryRowContext(ctx,
			`SELECT status FROM applications WHERE id = $1`, id).Scan(&status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errNotFound
			}
			return err
		}
		if status == structs.StatusAccepted {
			if fromPending {
				return errNotPending
			}
			return nil
		}
		if fromPending && status != structs.StatusPending {
			return errNotPending
		}

		res, err := q.ExecContext(ctx, `
			UPDATE applications SET status = $1, updated_at = $2
			WHERE id = $3
			  AND ($4 = FALSE OR status = $5)
			  AND (SELECT COUNT(*) FROM applications WHERE project_id = $6 AND status = $1) < $7
		`, structs.StatusAccepted, time.Now().UTC(), id, fromPending, structs.StatusPending, projectID, maxStudents)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return errFull
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *applicationRepository) SetStatus(ctx context.Context, id string, to structs.Status, fromPending bool) (*structs.Application, error) {
	if to == structs.StatusAccepted {
		return r.AcceptWithinCapacity(ctx, id, fromPending)
	}
	res, err := r.d.Querier(ctx).ExecContext(ctx, `
		UPDATE applications SET status = $1, updated_at = $2
		WHERE id = $3 AND ($4 = FALSE OR status = $5)
	`, to, time.Now().UTC(), id, fromPending, structs.StatusPending)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, errNotPending
	}
	return r.Get(ctx, id)
}

func (r *applicationRepository) Withdraw(ctx context.Context, id string) error {
	res, err := r.d.Querier(ctx).ExecContext(ctx,
		`DELETE FROM applications WHERE id = $1 AND status = $2`, id, structs.StatusPending)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return errNotPending
	}
	return nil
}

func (r *applicationRepository) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	var member bool
	err := r.d.Querier(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM projects p
			WHERE p.id = $1 AND (
				p.author_id = $2 OR EXISTS (
					SELECT 1 FROM applications a
					WHERE a.project_id = p.id AND a.student_id = $2 AND a.status = $3
				)
			)
		)
	`, projectID, userID, structs.StatusAccepted).Scan(&member)
	return member, err
}

func (r *applicationRepository) IsAccepted(ctx context.Context, projectID, studentID string) (bool, error) {
	var ok bool
	err := r.d.Querier(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM applications WHERE project_id = $1 AND student_id = $2 AND status = $3)
	`, projectID, studentID, structs.StatusAccepted).Scan(&ok)
	return ok, err
}

func (r *applicationRepository) MemberIDs(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.d.Querier(ctx).QueryContext(ctx, `
		SELECT author_id FROM projects WHERE id = $1
		UNION
		SELECT student_id FROM applications WHERE project_id = $1 AND status = $2
	`, projectID, structs.StatusAccepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *applicationRepository) StatusCounts(ctx context.Context, tenantID string) ([]adminstructs.StatusCount, error) {
	query := `SELECT tenant_id, status, COUNT(*) FROM applications`
	var args []any
	if tenantID != "" {
		query += ` WHERE tenant_id = $1`
		args = append(args, tenantID)
	}
	query += ` GROUP BY tenant_id, status ORDER BY tenant_id, status`

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

func scanApplication(s scanner) (*structs.Application, error) {
	a := &structs.Application{}
	err := s.Scan(&a.ID, &a.TenantID, &a.ProjectID, &a.StudentID, &a.StudentName, &a.StudentAvatar,
		&a.StudentDepartment, &a.StudentYear, &a.Status, &a.Message, &a.AppliedAt, &a.UpdatedAt, &a.ProjectTitle)
	if err != nil {
		return nil, err
	}
	return a, nil
}
