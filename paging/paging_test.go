package paging

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type row struct {
	id string
	at time.Time
}

func rows(n int) []row {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]row, n)
	for i := range out {
		// newest first
		out[i] = row{id: fmt.Sprintf("r%02d", n-i), at: base.Add(time.Duration(n-i) * time.Minute)}
	}
	return out
}

func fetcher(all []row) PagingFunc[row] {
	return func(c *Cursor, limit int) ([]row, int, error) {
		var out []row
		for _, r := range all {
			if c.After(r.at, r.id) {
				out = append(out, r)
			}
			if len(out) == limit {
				break
			}
		}
		return out, len(all), nil
	}
}

func key(r row) (time.Time, string) { return r.at, r.id }

func TestPaginateWalksAllPages(t *testing.T) {
	all := rows(7)
	var got []string
	params := Params{Limit: 3}
	for page := 0; page < 5; page++ {
		res, err := Paginate(params, fetcher(all), key)
		if err != nil {
			t.Fatalf("Paginate: %v", err)
		}
		for _, r := range res.Items {
			got = append(got, r.id)
		}
		if !res.HasNextPage {
			break
		}
		params.Cursor = res.NextCursor
	}
	if len(got) != 7 {
		t.Fatalf("got %d items: %v", len(got), got)
	}
	for i := range got {
		if got[i] != all[i].id {
			t.Fatalf("order mismatch at %d: %v", i, got)
		}
	}
}

func TestCursorRoundTripAndTies(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 123, time.UTC)
	c, err := DecodeCursor(EncodeCursor(at, "b"))
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	if !c.Time.Equal(at) || c.ID != "b" {
		t.Fatalf("cursor = %+v", c)
	}
	if !c.After(at, "a") || c.After(at, "c") {
		t.Error("tie-break on id is wrong")
	}
}

func TestDecodeCursorInvalid(t *testing.T) {
	for _, s := range []string{"!!", "bm90LWEtY3Vyc29y"} {
		if _, err := DecodeCursor(s); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("DecodeCursor(%q) err = %v", s, err)
		}
	}
	if c, err := DecodeCursor(""); c != nil || err != nil {
		t.Errorf("empty cursor = %v, %v", c, err)
	}
}

func TestNormalizeParams(t *testing.T) {
	if got := NormalizeParams(Params{}).Limit; got != DefaultLimit {
		t.Errorf("default limit = %d", got)
	}
	if got := NormalizeParams(Params{Limit: 5000}).Limit; got != MaxLimit {
		t.Errorf("max limit = %d", got)
	}
}
