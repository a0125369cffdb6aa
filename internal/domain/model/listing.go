package model

import (
	"crypto/rand"
	"time"

	"telegram-job-alerts/internal/domain"

	"github.com/oklog/ulid/v2"
)

// Listing is a single job posting normalized from an upstream source.
// Identity is the source-qualified pair (Source, SourceNativeID); the row ID
// is a ULID minted at ingestion so "newest first" has a deterministic
// tie-break on equal posted_at (later ingestion sorts first).
type Listing struct {
	ID             string
	Source         string // platform tag: remoteok | hackernews | github
	SourceNativeID string
	Title          string
	Description    string
	URL            string
	Platform       string // human-readable platform name
	Skills         []string
	BudgetMin      *int
	BudgetMax      *int
	PostedAt       time.Time
	FetchedAt      time.Time
}

func NewListing(source, nativeID, title string) (*Listing, error) {
	if source == "" || nativeID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Listing{
		ID:             ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		Source:         source,
		SourceNativeID: nativeID,
		Title:          title,
	}, nil
}

func (l *Listing) IsZero() bool { return l == nil || l.Source == "" || l.SourceNativeID == "" }
