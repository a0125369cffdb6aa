package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/adapter"
)

var _ adapter.SourceAdapter = (*RemoteOK)(nil)

// RemoteOK pulls the public RemoteOK API. The feed's first element is a legal
// notice, tagged with a non-"job" type, so entries are filtered on type.
type RemoteOK struct {
	url    string
	limit  int
	client *http.Client
	now    func() time.Time
}

func NewRemoteOK(url string, limit int, timeout time.Duration) *RemoteOK {
	return &RemoteOK{
		url:    url,
		limit:  limit,
		client: newHTTPClient(timeout),
		now:    time.Now,
	}
}

func (r *RemoteOK) Name() string { return "remoteok" }

type remoteOKEntry struct {
	Type        string      `json:"type"`
	ID          json.Number `json:"id"`
	Position    string      `json:"position"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags"`
	URL         string      `json:"url"`
	Date        string      `json:"date"`
	SalaryMin   *int        `json:"salary_min"`
	SalaryMax   *int        `json:"salary_max"`
}

func (r *RemoteOK) Fetch(ctx context.Context) ([]*model.Listing, error) {
	var entries []remoteOKEntry
	if err := getJSON(ctx, r.client, r.url, &entries); err != nil {
		return nil, err
	}

	out := make([]*model.Listing, 0, r.limit)
	for _, e := range entries {
		if len(out) >= r.limit {
			break
		}
		if e.Type != "job" || e.ID.String() == "" {
			continue
		}
		postedAt := r.now()
		if t, err := time.Parse(time.RFC3339, e.Date); err == nil {
			postedAt = t
		}
		l, err := model.NewListing(r.Name(), e.ID.String(), e.Position)
		if err != nil {
			continue
		}
		l.Description = truncate(e.Description, maxDescriptionLen)
		l.URL = e.URL
		l.Platform = "RemoteOK"
		l.Skills = e.Tags
		l.BudgetMin = e.SalaryMin
		l.BudgetMax = e.SalaryMax
		l.PostedAt = postedAt
		out = append(out, l)
	}
	return out, nil
}
