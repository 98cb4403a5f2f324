package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/meilisearch/meilisearch-go"
)

// Meili is an Index backed by Meilisearch.
type Meili struct {
	client meilisearch.ServiceManager
	index  string
}

// NewMeili connects to host and configures the index attributes.
func NewMeili(host, apiKey, index string) (*Meili, error) {
	if host == "" {
		return nil, errors.New("meilisearch host is required")
	}
	if index == "" {
		index = "projects"
	}
	m := &Meili{client: meilisearch.New(host, meilisearch.WithAPIKey(apiKey)), index: index}
	if err := m.setup(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Meili) setup() error {
	if _, err := m.client.CreateIndex(&meilisearch.IndexConfig{Uid: m.index, PrimaryKey: "id"}); err != nil {
		return fmt.Errorf("create index %s: %w", m.index, err)
	}
	idx := m.client.Index(m.index)

	searchable := []string{"title", "description", "skills"}
	if _, err := idx.UpdateSearchableAttributes(&searchable); err != nil {
		return fmt.Errorf("update searchable attributes: %w", err)
	}
	filterable := []any{"tenant_id", "project_type", "departments"}
	if _, err := idx.UpdateFilterableAttributes(&filterable); err != nil {
		return fmt.Errorf("update filterable attributes: %w", err)
	}
	return nil
}

func (m *Meili) Upsert(_ context.Context, doc *Document) error {
	_, err := m.client.Index(m.index).AddDocuments([]*Document{doc}, &meilisearch.DocumentOptions{PrimaryKey: "id"})
	return err
}

func (m *Meili) Delete(_ context.Context, id string) error {
	_, err := m.client.Index(m.index).DeleteDocument(id, nil)
	return err
}

func (m *Meili) Search(ctx context.Context, tenantID, query string, limit int) ([]string, error) {
	req := &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	}
	if tenantID != "" {
		req.Filter = "tenant_id = " + strconv.Quote(tenantID)
	}
	res, err := m.client.Index(m.index).SearchWithContext(ctx, query, req)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		var id string
		if err := json.Unmarshal(hit["id"], &id); err != nil {
			return nil, fmt.Errorf("decode hit id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
