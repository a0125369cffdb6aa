package sources

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/adapter"
)

var _ adapter.SourceAdapter = (*HackerNews)(nil)

// HackerNews pulls the Firebase jobstories feed, then one request per item.
// A failing item is skipped; only the story-list request can fail the source.
type HackerNews struct {
	baseURL string
	limit   int
	client  *http.Client
}

func NewHackerNews(baseURL string, limit int, timeout time.Duration) *HackerNews {
	return &HackerNews{
		baseURL: baseURL,
		limit:   limit,
		client:  newHTTPClient(timeout),
	}
}

func (h *HackerNews) Name() string { return "hackernews" }

type hnItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
	Time  int64  `json:"time"`
}

func (h *HackerNews) Fetch(ctx context.Context) ([]*model.Listing, error) {
	var ids []int64
	if err := getJSON(ctx, h.client, h.baseURL+"/jobstories.json", &ids); err != nil {
		return nil, err
	}
	if len(ids) > h.limit {
		ids = ids[:h.limit]
	}

	out := make([]*model.Listing, 0, len(ids))
	for _, id := range ids {
		var item hnItem
		url := fmt.Sprintf("%s/item/%d.json", h.baseURL, id)
		if err := getJSON(ctx, h.client, url, &item); err != nil {
			continue
		}
		if item.ID == 0 {
			continue
		}
		l, err := model.NewListing(h.Name(), strconv.FormatInt(item.ID, 10), item.Title)
		if err != nil {
			continue
		}
		l.Description = truncate(item.Text, maxDescriptionLen)
		l.URL = item.URL
		l.Platform = "Hacker News"
		l.PostedAt = time.Unix(item.Time, 0).UTC()
		out = append(out, l)
	}
	return out, nil
}
