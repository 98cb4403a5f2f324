// Package structs defines admin views shared by the repositories that feed them.
package structs

// StatusCount is one row of an analytics breakdown.
type StatusCount struct {
	TenantID string `json:"tenant_id"`
	Status   string `json:"status"`
	Count    int    `json:"count"`
}

// Analytics is the admin dashboard summary.
type Analytics struct {
	TenantID          string        `json:"tenant_id,omitempty"`
	ProjectModeration []StatusCount `json:"project_moderation"`
	ProjectProgress   []StatusCount `json:"project_progress"`
	Applications      []StatusCount `json:"applications"`
	Totals            Totals        `json:"totals"`
}

type Totals struct {
	Projects             int `json:"projects"`
	PendingModeration    int `json:"pending_moderation"`
	Applications         int `json:"applications"`
	AcceptedApplications int `json:"accepted_applications"`
}

// BulkResult reports a bulk moderation. Failed maps project id to reason.
type BulkResult struct {
	Updated []string          `json:"updated"`
	Failed  map[string]string `json:"failed"`
}
