package sources

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/adapter"
)

var _ adapter.SourceAdapter = (*GitHubJobs)(nil)

// GitHubJobs reads job-labelled issues off a GitHub repo. Issue labels become
// the skills facet.
type GitHubJobs struct {
	url    string
	limit  int
	client *http.Client
}

func NewGitHubJobs(url string, limit int, timeout time.Duration) *GitHubJobs {
	return &GitHubJobs{
		url:    url,
		limit:  limit,
		client: newHTTPClient(timeout),
	}
}

func (g *GitHubJobs) Name() string { return "github" }

type ghIssue struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	HTMLURL   string `json:"html_url"`
	CreatedAt string `json:"created_at"`
	Labels    []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

func (g *GitHubJobs) Fetch(ctx context.Context) ([]*model.Listing, error) {
	var issues []ghIssue
	if err := getJSON(ctx, g.client, g.url, &issues); err != nil {
		return nil, err
	}

	out := make([]*model.Listing, 0, g.limit)
	for _, is := range issues {
		if len(out) >= g.limit {
			break
		}
		if is.ID == 0 {
			continue
		}
		l, err := model.NewListing(g.Name(), strconv.FormatInt(is.ID, 10), is.Title)
		if err != nil {
			continue
		}
		l.Description = truncate(is.Body, maxDescriptionLen)
		l.URL = is.HTMLURL
		l.Platform = "GitHub"
		for _, lb := range is.Labels {
			if lb.Name != "job" {
				l.Skills = append(l.Skills, lb.Name)
			}
		}
		if t, err := time.Parse(time.RFC3339, is.CreatedAt); err == nil {
			l.PostedAt = t
		} else {
			l.PostedAt = time.Now().UTC()
		}
		out = append(out, l)
	}
	return out, nil
}
