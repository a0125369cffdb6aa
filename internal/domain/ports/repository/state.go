package repository

import "context"

// Filter conversation stages for the /filter flow.
const (
	FilterStageAwaitSkills   = "await_skills"
	FilterStageAwaitBudget   = "await_budget"
	FilterStageAwaitPlatform = "await_platform"
)

// FilterState is the short-lived conversational state between a /filter
// prompt and the user's reply. It lives in a TTL cache, not the database.
type FilterState struct {
	Stage string `json:"stage"`
}

type FilterStateRepository interface {
	SetState(ctx context.Context, tgID int64, state *FilterState) error
	GetState(ctx context.Context, tgID int64) (*FilterState, error)
	ClearState(ctx context.Context, tgID int64) error
}
