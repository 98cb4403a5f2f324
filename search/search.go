// Package search keeps a full-text index of projects. The index only narrows
// candidates; visibility is always applied by the database query.
package search

import (
	"context"
	"fmt"

	projectstructs "github.com/ncobase/collab/biz/project/structs"
	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
)

// Document is the indexed projection of a project.
type Document struct {
	ID          string   `json:"id"`
	TenantID    string   `json:"tenant_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	Departments []string `json:"departments"`
	ProjectType string   `json:"project_type"`
}

// Index stores and queries project documents.
type Index interface {
	Upsert(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id string) error
	// Search returns matching project ids in relevance order. An empty
	// tenantID searches every tenant.
	Search(ctx context.Context, tenantID, query string, limit int) ([]string, error)
}

// New opens the configured index. It returns nil, nil when search is
// disabled.
func New(c *config.Search) (Index, error) {
	if c == nil {
		return nil, nil
	}
	switch c.Provider {
	case "", "none":
		return nil, nil
	case "meilisearch":
		m, err := NewMeili(c.Host, c.APIKey, c.Index)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", c.Provider)
	}
}

// DocumentOf projects p into an index document.
func DocumentOf(p *projectstructs.Project) *Document {
	return &Document{
		ID:          p.ID,
		TenantID:    p.TenantID,
		Title:       p.Title,
		Description: p.Description,
		Skills:      p.Skills,
		Departments: p.Departments,
		ProjectType: string(p.ProjectType),
	}
}

// Indexer follows project events on the bus and mirrors them into an Index.
type Indexer struct {
	index  Index
	logger *logger.Logger
}

func NewIndexer(index Index, log *logger.Logger) *Indexer {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Indexer{index: index, logger: log}
}

// Register subscribes the indexer to project lifecycle events.
func (i *Indexer) Register(bus *event.Bus) {
	for _, t := range []event.EventType{
		event.EventTypeNewProject,
		event.EventTypeProjectUpdated,
		event.EventTypeProjectModerated,
		event.EventTypeProjectArchived,
		event.EventTypeProjectDeleted,
	} {
		bus.Subscribe(t, i.Handle)
	}
}

// Handle indexes or removes the project carried by ev.
func (i *Indexer) Handle(ctx context.Context, ev *event.Event) error {
	switch ev.Type {
	case event.EventTypeProjectArchived, event.EventTypeProjectDeleted:
		if err := i.index.Delete(ctx, ev.ProjectID); err != nil {
			return fmt.Errorf("remove project %s from index: %w", ev.ProjectID, err)
		}
		return nil
	}

	p, ok := ev.Payload.(*projectstructs.Project)
	if !ok {
		i.logger.Warn(ctx, "Unexpected project event payload", "type", ev.Type, "payload", fmt.Sprintf("%T", ev.Payload))
		return nil
	}
	if p.Archived() {
		return i.index.Delete(ctx, p.ID)
	}
	if err := i.index.Upsert(ctx, DocumentOf(p)); err != nil {
		return fmt.Errorf("index project %s: %w", p.ID, err)
	}
	return nil
}
