package github

import "time"

// CheckRun is a snapshot of a check run as returned by the checks API.
// Field names follow the API so the JSON form can be handed to later workflow steps.
type CheckRun struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	HeadSHA     string     `json:"head_sha"`
	Status      string     `json:"status"`                 // "queued", "in_progress", "completed", ...
	Conclusion  *string    `json:"conclusion"`             // nil until the run has completed
	StartedAt   *time.Time `json:"started_at,omitempty"`   // nil if the run has not started
	CompletedAt *time.Time `json:"completed_at,omitempty"` // nil until the run has completed
	HTMLURL     string     `json:"html_url,omitempty"`
	DetailsURL  string     `json:"details_url,omitempty"`
	AppSlug     string     `json:"app_slug,omitempty"`
}

// GetConclusion returns the conclusion, or "" if it is not populated yet
func (r *CheckRun) GetConclusion() string {
	if r == nil || r.Conclusion == nil {
		return ""
	}
	return *r.Conclusion
}
