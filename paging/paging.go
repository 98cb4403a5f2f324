package paging

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/ncobase/collab/ecode"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrInvalidCursor is returned for cursors that were not produced by EncodeCursor.
var ErrInvalidCursor = ecode.NewValidation(map[string]string{"cursor": "invalid cursor"})

// Params holds the unified pagination parameters
type Params struct {
	Cursor string `json:"cursor" form:"cursor"`
	Limit  int    `json:"limit" form:"limit"`
}

// Result holds the pagination result
type Result[T any] struct {
	Items       []T    `json:"items"`
	Total       int    `json:"total,omitempty"`
	NextCursor  string `json:"next,omitempty"`
	HasNextPage bool   `json:"has_next"`
}

// Cursor is a position in a list ordered by (created_at DESC, id DESC).
type Cursor struct {
	Time time.Time
	ID   string
}

// After reports whether a row keyed by (t, id) comes after the cursor
// position in descending order.
func (c *Cursor) After(t time.Time, id string) bool {
	if c == nil {
		return true
	}
	if t.Equal(c.Time) {
		return id < c.ID
	}
	return t.Before(c.Time)
}

// NormalizeParams ensures that Limit is within an acceptable range
func NormalizeParams(params Params) Params {
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	if params.Limit > MaxLimit {
		params.Limit = MaxLimit
	}
	return params
}

// EncodeCursor encodes a row position to a cursor string
func EncodeCursor(t time.Time, id string) string {
	raw := t.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor decodes a cursor string. An empty string yields a nil cursor.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	ts, id, ok := strings.Cut(string(b), "|")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &Cursor{Time: t, ID: id}, nil
}

// PagingFunc fetches up to limit rows after cursor.
type PagingFunc[T any] func(cursor *Cursor, limit int) (items []T, total int, err error)

// KeyFunc returns the ordering key of an item.
type KeyFunc[T any] func(item T) (time.Time, string)

// Paginate applies pagination using the provided PagingFunc
func Paginate[T any](params Params, fetch PagingFunc[T], key KeyFunc[T]) (*Result[T], error) {
	params = NormalizeParams(params)
	cursor, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	items, total, err := fetch(cursor, params.Limit+1)
	if err != nil {
		return nil, fmt.Errorf("pagination error: %w", err)
	}

	result := &Result[T]{Total: total}
	if len(items) > params.Limit {
		items = items[:params.Limit]
		result.HasNextPage = true
		t, id := key(items[len(items)-1])
		result.NextCursor = EncodeCursor(t, id)
	}
	if items == nil {
		items = make([]T, 0)
	}
	result.Items = items
	return result, nil
}
