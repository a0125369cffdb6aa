package model

import (
	"strings"
	"time"

	"telegram-job-alerts/internal/domain"

	"github.com/google/uuid"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(s)) {
	case TierFree:
		return TierFree, nil
	case TierPremium:
		return TierPremium, nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

// Preferences is the per-user listing filter. An unset field matches every
// listing; set fields are ANDed together.
type Preferences struct {
	Skills    []string `json:"skills,omitempty"`
	MinBudget *int     `json:"min_budget,omitempty"`
	MaxBudget *int     `json:"max_budget,omitempty"`
	Platform  string   `json:"platform,omitempty"`
}

func (p Preferences) IsZero() bool {
	return len(p.Skills) == 0 && p.MinBudget == nil && p.MaxBudget == nil && p.Platform == ""
}

// Matches reports whether a listing passes the filter. Listings that omit a
// facet (no skills, no budget) pass the corresponding check, so sparse
// upstream payloads are never filtered out by accident.
func (p Preferences) Matches(l *Listing) bool {
	if l == nil {
		return false
	}
	if p.Platform != "" && !strings.EqualFold(p.Platform, l.Platform) {
		return false
	}
	if p.MinBudget != nil && l.BudgetMax != nil && *l.BudgetMax < *p.MinBudget {
		return false
	}
	if p.MaxBudget != nil && l.BudgetMin != nil && *l.BudgetMin > *p.MaxBudget {
		return false
	}
	if len(p.Skills) > 0 && len(l.Skills) > 0 {
		if !anySkillOverlap(p.Skills, l.Skills) {
			return false
		}
	}
	return true
}

func anySkillOverlap(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(w, h) {
				return true
			}
		}
	}
	return false
}

// User is a domain entity representing a Telegram user in our system.
// The daily on-demand quota window is embedded so the claim transaction has a
// single row to read and roll over.
type User struct {
	ID              string
	TelegramID      int64
	Username        string
	Tier            Tier
	Preferences     Preferences
	SentToday       int
	WindowStartedAt *time.Time
	RegisteredAt    time.Time
	LastActiveAt    time.Time
}

func NewUser(id string, tgID int64, username string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	u := &User{
		ID:           id,
		TelegramID:   tgID,
		Username:     username,
		Tier:         TierFree,
		RegisteredAt: time.Now(),
		LastActiveAt: time.Now(),
	}
	return u, nil
}

func (u *User) IsZero() bool    { return u == nil || u.ID == "" }
func (u *User) IsPremium() bool { return u != nil && u.Tier == TierPremium }
func (u *User) Touch()          { u.LastActiveAt = time.Now() }

// RollWindow resets the daily counter when the rolling 24h window (anchored to
// the first request of the day) has elapsed. Returns true when a reset
// happened so callers know to persist the row.
func (u *User) RollWindow(now time.Time) bool {
	if u.WindowStartedAt != nil && now.Sub(*u.WindowStartedAt) < 24*time.Hour {
		return false
	}
	start := now
	u.WindowStartedAt = &start
	u.SentToday = 0
	return true
}

// RemainingQuota returns how many on-demand sends the user may still claim in
// the current window. Premium users are bounded by the batch ceiling only.
func (u *User) RemainingQuota(freeLimit, premiumCeiling int) int {
	if u.IsPremium() {
		return premiumCeiling
	}
	r := freeLimit - u.SentToday
	if r < 0 {
		return 0
	}
	return r
}
