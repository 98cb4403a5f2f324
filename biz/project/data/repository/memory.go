package repository

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/ncobase/collab/biz/access"
	adminstructs "github.com/ncobase/collab/biz/admin/structs"
	"github.com/ncobase/collab/biz/project/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/paging"
)

// MemoryProjectRepository is the in-process twin of the SQL repository.
type MemoryProjectRepository struct {
	projects map[string]*structs.Project
	mu       sync.RWMutex
}

func NewMemoryProjectRepository() *MemoryProjectRepository {
	return &MemoryProjectRepository{projects: make(map[string]*structs.Project)}
}

func (r *MemoryProjectRepository) Create(_ context.Context, p *structs.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.projects[p.ID]; exists {
		return ecode.NewConflict(ecode.AlreadyExist("project"))
	}
	r.projects[p.ID] = p.Clone()
	return nil
}

func (r *MemoryProjectRepository) Get(_ context.Context, id string) (*structs.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, errNotFound
	}
	return p.Clone(), nil
}

// Mutate runs fn under the repository lock. The memory application twin
// takes this lock before its own when accepting, matching the SQL row lock.
func (r *MemoryProjectRepository) Mutate(ctx context.Context, id string, fn MutateFunc) (*structs.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.projects[id]
	if !ok {
		return nil, errNotFound
	}
	p := current.Clone()
	if err := fn(ctx, p); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return current.Clone(), nil
		}
		return nil, err
	}
	r.projects[id] = p.Clone()
	return p, nil
}

func (r *MemoryProjectRepository) List(_ context.Context, f access.ProjectFilter, q Query, cursor *paging.Cursor, limit int) ([]*structs.Project, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*structs.Project
	for _, p := range r.projects {
		if matchQuery(f, q, p) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	var out []*structs.Project
	for _, p := range matched {
		if !cursor.After(p.CreatedAt, p.ID) {
			continue
		}
		out = append(out, p.Clone())
		if len(out) == limit {
			break
		}
	}
	return out, len(matched), nil
}

func matchQuery(f access.ProjectFilter, q Query, p *structs.Project) bool {
	if !f.Match(p) {
		return false
	}
	if !f.StudentView && !q.IncludeArchived && p.Archived() {
		return false
	}
	switch {
	case q.AuthorID != "" && p.AuthorID != q.AuthorID,
		q.ProjectType != "" && string(p.ProjectType) != q.ProjectType,
		q.ProgressStatus != "" && string(p.ProgressStatus) != q.ProgressStatus,
		q.ModerationStatus != "" && string(p.ModerationStatus) != q.ModerationStatus,
		q.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(q.Search)),
		q.Skill != "" && !slices.Contains(p.Skills, q.Skill),
		q.IDs != nil && !slices.Contains(q.IDs, p.ID):
		return false
	}
	return true
}

func (r *MemoryProjectRepository) ModerationCounts(_ context.Context, tenantID string) ([]adminstructs.StatusCount, error) {
	return r.counts(tenantID, func(p *structs.Project) string { return string(p.ModerationStatus) }), nil
}

func (r *MemoryProjectRepository) ProgressCounts(_ context.Context, tenantID string) ([]adminstructs.StatusCount, error) {
	return r.counts(tenantID, func(p *structs.Project) string { return string(p.ProgressStatus) }), nil
}

func (r *MemoryProjectRepository) counts(tenantID string, key func(*structs.Project) string) []adminstructs.StatusCount {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type k struct{ tenant, status string }
	agg := make(map[k]int)
	for _, p := range r.projects {
		if p.Archived() || (tenantID != "" && p.TenantID != tenantID) {
			continue
		}
		agg[k{p.TenantID, key(p)}]++
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
	return out
}
