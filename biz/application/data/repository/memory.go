package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	adminstructs "github.com/ncobase/collab/biz/admin/structs"
	"github.com/ncobase/collab/biz/application/structs"
	projectrepo "github.com/ncobase/collab/biz/project/data/repository"
	projectstructs "github.com/ncobase/collab/biz/project/structs"
	"github.com/ncobase/collab/paging"
)

// ProjectReader loads the project an application belongs to.
type ProjectReader interface {
	Get(ctx context.Context, id string) (*projectstructs.Project, error)
}

// ProjectStore is the slice of the project repository the memory twin needs
// for capacity and membership.
type ProjectStore interface {
	ProjectReader
	Mutate(ctx context.Context, id string, fn projectrepo.MutateFunc) (*projectstructs.Project, error)
}

// MemoryApplicationRepository is the in-process twin of the SQL repository.
// Accepts hold the project lock and then r.mu, the way the SQL twin locks
// the project row.
type MemoryApplicationRepository struct {
	projects ProjectStore
	apps     map[string]*structs.Application
	mu       sync.RWMutex
}

func NewMemoryApplicationRepository(projects ProjectStore) *MemoryApplicationRepository {
	return &MemoryApplicationRepository{projects: projects, apps: make(map[string]*structs.Application)}
}

func (r *MemoryApplicationRepository) Create(_ context.Context, a *structs.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.ProjectID == a.ProjectID && existing.StudentID == a.StudentID {
			return errDuplicate
		}
	}
	c := *a
	r.apps[a.ID] = &c
	return nil
}

func (r *MemoryApplicationRepository) Get(ctx context.Context, id string) (*structs.Application, error) {
	r.mu.RLock()
	a, ok := r.apps[id]
	var c structs.Application
	if ok {
		c = *a
	}
	r.mu.RUnlock()
	if !ok {
		return nil, errNotFound
	}
	r.fillTitle(ctx, &c)
	return &c, nil
}

func (r *MemoryApplicationRepository) fillTitle(ctx context.Context, a *structs.Application) {
	if p, err := r.projects.Get(ctx, a.ProjectID); err == nil {
		a.ProjectTitle = p.Title
	}
}

func (r *MemoryApplicationRepository) Exists(_ context.Context, projectID, studentID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.apps {
		if a.ProjectID == projectID && a.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryApplicationRepository) List(ctx context.Context, q Query, cursor *paging.Cursor, limit int) ([]*structs.Application, int, error) {
	r.mu.RLock()
	var matched []structs.Application
	for _, a := range r.apps {
		switch {
		case q.TenantID != "" && a.TenantID != q.TenantID,
			q.ProjectID != "" && a.ProjectID != q.ProjectID,
			q.StudentID != "" && a.StudentID != q.StudentID,
			q.Status != "" && string(a.Status) != q.Status:
			continue
		}
		matched = append(matched, *a)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].AppliedAt.Equal(matched[j].AppliedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].AppliedAt.After(matched[j].AppliedAt)
	})

	var out []*structs.Application
	for i := range matched {
		a := &matched[i]
		if !cursor.After(a.AppliedAt, a.ID) {
			continue
		}
		r.fillTitle(ctx, a)
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out, len(matched), nil
}

func (r *MemoryApplicationRepository) CountAccepted(_ context.Context, projectID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countAccepted(projectID), nil
}

func (r *MemoryApplicationRepository) countAccepted(projectID string) int {
	n := 0
	for _, a := range r.apps {
		if a.ProjectID == projectID && a.Status == structs.StatusAccepted {
			n++
		}
	}
	return n
}

func (r *MemoryApplicationRepository) AcceptedCounts(_ context.Context, projectIDs []string) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int, len(projectIDs))
	for _, id := range projectIDs {
		if n := r.countAccepted(id); n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (r *MemoryApplicationRepository) AcceptWithinCapacity(ctx context.Context, id string, fromPending bool) (*structs.Application, error) {
	r.mu.RLock()
	a, ok := r.apps[id]
	var projectID string
	if ok {
		projectID = a.ProjectID
	}
	r.mu.RUnlock()
	if !ok {
		return nil, errNotFound
	}

	_, err := r.projects.Mutate(ctx, projectID, func(_ context.Context, p *projectstructs.Project) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		a, ok := r.apps[id]
		switch {
		case !ok:
			return errNotFound
		case a.Status == structs.StatusAccepted && fromPending:
			return errNotPending
		case a.Status == structs.StatusAccepted:
		case fromPending && a.Status != structs.StatusPending:
			return errNotPending
		case r.countAccepted(a.ProjectID) >= p.MaxStudents:
			return errFull
		default:
			a.Status = structs.StatusAccepted
			a.UpdatedAt = time.Now().UTC()
		}
		return projectrepo.ErrUnchanged
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *MemoryApplicationRepository) SetStatus(ctx context.Context, id string, to structs.Status, fromPending bool) (*structs.Application, error) {
	if to == structs.StatusAccepted {
		return r.AcceptWithinCapacity(ctx, id, fromPending)
	}
	r.mu.Lock()
	a, ok := r.apps[id]
	if !ok {
		r.mu.Unlock()
		return nil, errNotFound
	}
	if fromPending && a.Status != structs.StatusPending {
		r.mu.Unlock()
		return nil, errNotPending
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	r.mu.Unlock()
	return r.Get(ctx, id)
}

func (r *MemoryApplicationRepository) Withdraw(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return errNotFound
	}
	if a.Status != structs.StatusPending {
		return errNotPending
	}
	delete(r.apps, id)
	return nil
}

func (r *MemoryApplicationRepository) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	p, err := r.projects.Get(ctx, projectID)
	if err != nil {
		return false, nil
	}
	if p.AuthorID == userID {
		return true, nil
	}
	return r.IsAccepted(ctx, projectID, userID)
}

func (r *MemoryApplicationRepository) IsAccepted(_ context.Context, projectID, studentID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.apps {
		if a.ProjectID == projectID && a.StudentID == studentID && a.Status == structs.StatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryApplicationRepository) MemberIDs(ctx context.Context, projectID string) ([]string, error) {
	var ids []string
	if p, err := r.projects.Get(ctx, projectID); err == nil {
		ids = append(ids, p.AuthorID)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.apps {
		if a.ProjectID == projectID && a.Status == structs.StatusAccepted {
			ids = append(ids, a.StudentID)
		}
	}
	return ids, nil
}

func (r *MemoryApplicationRepository) StatusCounts(_ context.Context, tenantID string) ([]adminstructs.StatusCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type k struct{ tenant, status string }
	agg := make(map[k]int)
	for _, a := range r.apps {
		if tenantID != "" && a.TenantID != tenantID {
			continue
		}
		agg[k{a.TenantID, string(a.Status)}]++
	}
	out := make([]adminstructs.StatusCount, 0, len(agg))
	for key, n := range agg {
		out = append(out, adminstructs.StatusCount{TenantID: key.tenant, Status: key.status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TenantID == out[j].TenantID {
			return out[i].Status < out[j].Status
		}
		return out[i].TenantID < out[j].TenantID
	})
	return out, nil
}
