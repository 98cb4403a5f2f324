package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/core/identity/structs"
	"github.com/sony/gobreaker"
)

// Upstream is a breaker-guarded JSON client for the identity and profile
// services.
type Upstream struct {
	name    string
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
}

// NewUpstream creates a client for baseURL. An empty baseURL disables it.
func NewUpstream(name, baseURL string, timeout time.Duration, bc *config.Breaker) *Upstream {
	if bc == nil {
		bc = &config.Breaker{MaxRequests: 100, Interval: 5 * time.Second, Timeout: 3 * time.Second, MinRequests: 3, FailureRatio: 0.6}
	}
	return &Upstream{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: bc.MaxRequests,
			Interval:    bc.Interval,
			Timeout:     bc.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= bc.MinRequests && failureRatio >= bc.FailureRatio
			},
		}),
	}
}

// Enabled reports whether a base URL is configured.
func (u *Upstream) Enabled() bool { return u.baseURL != "" }

// State returns the breaker state name.
func (u *Upstream) State() string { return u.cb.State().String() }

// Fetch GETs path with the caller's credential and decodes a scope.
func (u *Upstream) Fetch(ctx context.Context, path, credential string) (*structs.Scope, error) {
	out, err := u.cb.Execute(func() (any, error) {
		return u.fetch(ctx, path, credential)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.name, err)
	}
	return out.(*structs.Scope), nil
}

func (u *Upstream) fetch(ctx context.Context, path, credential string) (*structs.Scope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Accept", "application/json")

	res, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return decodeProfile(body)
}

type profile struct {
	TenantID    string `json:"tenant_id"`
	CollegeID   string `json:"collegeId"`
	TenantAlt   string `json:"tenantId"`
	Department  string `json:"department"`
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Year        int    `json:"year"`
}

// decodeProfile accepts a bare profile object or one wrapped in "data".
func decodeProfile(body []byte) (*structs.Scope, error) {
	var wrapped struct {
		Data *profile `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	p := wrapped.Data
	if p == nil {
		p = &profile{}
		if err := json.Unmarshal(body, p); err != nil {
			return nil, err
		}
	}

	scope := &structs.Scope{
		TenantID:    firstNonEmpty(p.TenantID, p.TenantAlt, p.CollegeID),
		Department:  p.Department,
		DisplayName: firstNonEmpty(p.DisplayName, p.Name),
		Avatar:      p.Avatar,
		Year:        p.Year,
	}
	if *scope == (structs.Scope{}) {
		return nil, errors.New("empty profile")
	}
	return scope, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
