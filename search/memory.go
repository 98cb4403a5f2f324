package search

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Memory is an in-process Index that matches every query term against
// title, description and skills.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Document)}
}

func (m *Memory) Upsert(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = *doc
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *Memory) Search(_ context.Context, tenantID, query string, limit int) ([]string, error) {
	terms := strings.Fields(strings.ToLower(query))

	m.mu.RLock()
	var ids []string
	for id, d := range m.docs {
		if tenantID != "" && d.TenantID != tenantID {
			continue
		}
		text := strings.ToLower(d.Title + " " + d.Description + " " + strings.Join(d.Skills, " "))
		if !slices.ContainsFunc(terms, func(t string) bool { return !strings.Contains(text, t) }) {
			ids = append(ids, id)
		}
	}
	m.mu.RUnlock()

	slices.Sort(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
