//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"telegram-job-alerts/internal/domain"
)

// --- User Model Tests ---

func TestNewUser(t *testing.T) {
	t.Run("should create a free-tier user with fresh timestamps", func(t *testing.T) {
		u, err := NewUser("", 12345, "testuser")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.ID == "" {
			t.Fatal("expected generated ID")
		}
		if u.Tier != TierFree {
			t.Fatalf("new users must start free, got %s", u.Tier)
		}
		if u.WindowStartedAt != nil {
			t.Fatal("window must be unset until the first request")
		}
	})

	t.Run("should reject a non-positive telegram id", func(t *testing.T) {
		if _, err := NewUser("", 0, "x"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want invalid argument, got %v", err)
		}
	})
}

func TestRollWindow(t *testing.T) {
	now := time.Now()

	t.Run("first request anchors the window", func(t *testing.T) {
		u, _ := NewUser("", 1, "x")
		if !u.RollWindow(now) {
			t.Fatal("first roll must reset")
		}
		if u.WindowStartedAt == nil || !u.WindowStartedAt.Equal(now) {
			t.Fatalf("window not anchored: %v", u.WindowStartedAt)
		}
	})

	t.Run("no reset inside 24h", func(t *testing.T) {
		u, _ := NewUser("", 1, "x")
		u.RollWindow(now)
		u.SentToday = 3
		if u.RollWindow(now.Add(23 * time.Hour)) {
			t.Fatal("rolled inside the window")
		}
		if u.SentToday != 3 {
			t.Fatalf("counter touched inside window: %d", u.SentToday)
		}
	})

	t.Run("reset after 24h re-anchors to the new request", func(t *testing.T) {
		u, _ := NewUser("", 1, "x")
		u.RollWindow(now)
		u.SentToday = 5
		later := now.Add(25 * time.Hour)
		if !u.RollWindow(later) {
			t.Fatal("expected roll after 24h")
		}
		if u.SentToday != 0 {
			t.Fatalf("counter not reset: %d", u.SentToday)
		}
		if !u.WindowStartedAt.Equal(later) {
			t.Fatalf("window not re-anchored: %v", u.WindowStartedAt)
		}
	})
}

func TestRemainingQuota(t *testing.T) {
	t.Run("free tier counts down and clamps at zero", func(t *testing.T) {
		u, _ := NewUser("", 1, "x")
		u.SentToday = 3
		if got := u.RemainingQuota(5, 25); got != 2 {
			t.Fatalf("want 2, got %d", got)
		}
		u.SentToday = 9
		if got := u.RemainingQuota(5, 25); got != 0 {
			t.Fatalf("want 0, got %d", got)
		}
	})

	t.Run("premium ignores the daily counter", func(t *testing.T) {
		u, _ := NewUser("", 1, "x")
		u.Tier = TierPremium
		u.SentToday = 100
		if got := u.RemainingQuota(5, 25); got != 25 {
			t.Fatalf("want 25, got %d", got)
		}
	})
}

func TestParseTier(t *testing.T) {
	if tier, err := ParseTier("Premium"); err != nil || tier != TierPremium {
		t.Fatalf("ParseTier(Premium) = %s, %v", tier, err)
	}
	if _, err := ParseTier("gold"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
}

// --- Preferences Tests ---

func intp(v int) *int { return &v }

func TestPreferencesMatches(t *testing.T) {
	listing := &Listing{
		ID:        "l1",
		Source:    "remoteok",
		Platform:  "RemoteOK",
		Skills:    []string{"Go", "Postgres"},
		BudgetMin: intp(1000),
		BudgetMax: intp(3000),
	}

	cases := []struct {
		name  string
		prefs Preferences
		want  bool
	}{
		{"empty preferences match everything", Preferences{}, true},
		{"skill overlap (case-insensitive)", Preferences{Skills: []string{"go"}}, true},
		{"no skill overlap", Preferences{Skills: []string{"rust"}}, false},
		{"budget inside range", Preferences{MinBudget: intp(500), MaxBudget: intp(5000)}, true},
		{"listing pays too little", Preferences{MinBudget: intp(4000)}, false},
		{"listing starts too high", Preferences{MaxBudget: intp(500)}, false},
		{"platform match ignores case", Preferences{Platform: "remoteok"}, true},
		{"platform mismatch", Preferences{Platform: "GitHub"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.prefs.Matches(listing); got != tc.want {
				t.Fatalf("Matches() = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("listing without a facet passes that check", func(t *testing.T) {
		sparse := &Listing{ID: "l2", Source: "hackernews", Platform: "Hacker News"}
		prefs := Preferences{Skills: []string{"go"}, MinBudget: intp(1000)}
		if !prefs.Matches(sparse) {
			t.Fatal("sparse listing should not be filtered out")
		}
	})

	t.Run("nil listing never matches", func(t *testing.T) {
		if (Preferences{}).Matches(nil) {
			t.Fatal("nil listing matched")
		}
	})
}

// --- Listing Model Tests ---

func TestNewListing(t *testing.T) {
	t.Run("mints a sortable row id", func(t *testing.T) {
		a, err := NewListing("remoteok", "1", "A")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.ID == "" {
			t.Fatal("expected generated ID")
		}
	})

	t.Run("requires source identity", func(t *testing.T) {
		if _, err := NewListing("", "1", "A"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want invalid argument, got %v", err)
		}
		if _, err := NewListing("remoteok", "", "A"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want invalid argument, got %v", err)
		}
	})
}
