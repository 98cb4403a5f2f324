// Package paging implements keyset pagination over lists ordered by
// creation time, newest first.
//
//	result, err := paging.Paginate(params,
//	    func(c *paging.Cursor, limit int) ([]*Project, int, error) {
//	        return repo.List(ctx, filter, c, limit)
//	    },
//	    func(p *Project) (time.Time, string) { return p.CreatedAt, p.ID },
//	)
//
// The cursor is opaque to clients; they pass result.NextCursor back
// unchanged to fetch the following page.
package paging
