//go:build !integration

package application_test

import (
	"context"
	"strings"
	"testing"

	"telegram-job-alerts/internal/application"
	"telegram-job-alerts/internal/domain"
	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/usecase"
)

//
// ---------------- usecase mocks ----------------
//

type mockUserUC struct {
	users map[int64]*model.User
}

func newMockUserUC() *mockUserUC { return &mockUserUC{users: map[int64]*model.User{}} }

func (m *mockUserUC) RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.User, error) {
	if u, ok := m.users[tgID]; ok {
		return u, nil
	}
	u, err := model.NewUser("", tgID, username)
	if err != nil {
		return nil, err
	}
	m.users[tgID] = u
	return u, nil
}

func (m *mockUserUC) SetPreferences(ctx context.Context, tgID int64, prefs model.Preferences) (*model.User, error) {
	u, ok := m.users[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.Preferences = prefs
	return u, nil
}

func (m *mockUserUC) SetTier(ctx context.Context, userID string, tier model.Tier) error {
	for _, u := range m.users {
		if u.ID == userID {
			u.Tier = tier
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockUserUC) Erase(ctx context.Context, userID string) error { return domain.ErrNotFound }

type mockQuotaUC struct {
	batch  []*model.Listing
	status model.QuotaStatus
	err    error
}

func (m *mockQuotaUC) RequestOnDemand(ctx context.Context, userID string) ([]*model.Listing, model.QuotaStatus, error) {
	return m.batch, m.status, m.err
}

type mockStatsUC struct{ report *usecase.StatsReport }

func (m *mockStatsUC) Summary(ctx context.Context) (*usecase.StatsReport, error) {
	return m.report, nil
}

func newFacade(quota *mockQuotaUC) (*application.BotFacade, *mockUserUC) {
	userUC := newMockUserUC()
	facade := application.NewBotFacade(userUC, quota, &mockStatsUC{report: &usecase.StatsReport{}}, 5)
	return facade, userUC
}

//
// ---------------- tests ----------------
//

func TestHandleJobs(t *testing.T) {
	ctx := context.Background()

	t.Run("ok renders the batch and a quota footer", func(t *testing.T) {
		l, _ := model.NewListing("remoteok", "1", "Go Developer")
		l.Platform = "RemoteOK"
		l.URL = "https://remoteok.io/jobs/1"
		facade, userUC := newFacade(&mockQuotaUC{batch: []*model.Listing{l}, status: model.QuotaStatusOK})

		reply, err := facade.HandleJobs(ctx, 100, "alice")
		if err != nil {
			t.Fatalf("handle jobs: %v", err)
		}
		if !strings.Contains(reply, "Go Developer") || !strings.Contains(reply, "https://remoteok.io/jobs/1") {
			t.Fatalf("listing missing from reply: %q", reply)
		}
		if !strings.Contains(reply, "of 5 daily jobs remaining") {
			t.Fatalf("quota footer missing: %q", reply)
		}
		if _, ok := userUC.users[100]; !ok {
			t.Fatal("user not registered on first contact")
		}
	})

	t.Run("exhausted_quota mentions the limit and the upgrade path", func(t *testing.T) {
		facade, _ := newFacade(&mockQuotaUC{status: model.QuotaStatusExhaustedQuota})
		reply, err := facade.HandleJobs(ctx, 100, "alice")
		if err != nil {
			t.Fatalf("handle jobs: %v", err)
		}
		if !strings.Contains(reply, "/upgrade") || !strings.Contains(reply, "5") {
			t.Fatalf("upgrade hint missing: %q", reply)
		}
	})

	t.Run("exhausted_supply is a friendly all-caught-up", func(t *testing.T) {
		facade, _ := newFacade(&mockQuotaUC{status: model.QuotaStatusExhaustedSupply})
		reply, err := facade.HandleJobs(ctx, 100, "alice")
		if err != nil {
			t.Fatalf("handle jobs: %v", err)
		}
		if !strings.Contains(reply, "caught up") {
			t.Fatalf("unexpected reply: %q", reply)
		}
	})

	t.Run("temporarily_unavailable asks to retry, not an error", func(t *testing.T) {
		facade, _ := newFacade(&mockQuotaUC{status: model.QuotaStatusTemporarilyUnavailable})
		reply, err := facade.HandleJobs(ctx, 100, "alice")
		if err != nil {
			t.Fatalf("handle jobs: %v", err)
		}
		if !strings.Contains(strings.ToLower(reply), "try again") {
			t.Fatalf("unexpected reply: %q", reply)
		}
	})
}

func TestHandleUpgrade(t *testing.T) {
	ctx := context.Background()
	facade, userUC := newFacade(&mockQuotaUC{})

	reply, err := facade.HandleUpgrade(ctx, 100, "alice")
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if !strings.Contains(reply, "Premium") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if userUC.users[100].Tier != model.TierPremium {
		t.Fatalf("tier not changed: %s", userUC.users[100].Tier)
	}

	again, err := facade.HandleUpgrade(ctx, 100, "alice")
	if err != nil {
		t.Fatalf("second upgrade: %v", err)
	}
	if !strings.Contains(again, "already") {
		t.Fatalf("repeat upgrade should be a no-op message: %q", again)
	}
}

func TestHandleFilters(t *testing.T) {
	ctx := context.Background()
	facade, _ := newFacade(&mockQuotaUC{})

	if _, err := facade.HandleSetSkills(ctx, 100, []string{"go", "python"}); err != nil {
		t.Fatalf("set skills: %v", err)
	}
	min := 500
	if _, err := facade.HandleSetBudget(ctx, 100, &min, nil); err != nil {
		t.Fatalf("set budget: %v", err)
	}

	reply, err := facade.HandleFilters(ctx, 100, "alice")
	if err != nil {
		t.Fatalf("filters: %v", err)
	}
	if !strings.Contains(reply, "go, python") || !strings.Contains(reply, "from $500") {
		t.Fatalf("filters not rendered: %q", reply)
	}

	if _, err := facade.HandleClearFilters(ctx, 100); err != nil {
		t.Fatalf("clear: %v", err)
	}
	reply, _ = facade.HandleFilters(ctx, 100, "alice")
	if !strings.Contains(reply, "Skills: any") {
		t.Fatalf("filters not cleared: %q", reply)
	}
}

func TestFormatBatch(t *testing.T) {
	a, _ := model.NewListing("remoteok", "1", "A")
	a.Platform = "RemoteOK"
	b, _ := model.NewListing("github", "2", "B")
	b.Platform = "GitHub"
	min, max := 100, 200
	b.BudgetMin, b.BudgetMax = &min, &max

	out := application.FormatBatch("Header:", []*model.Listing{a, b})
	if !strings.HasPrefix(out, "Header:") {
		t.Fatalf("header missing: %q", out)
	}
	if !strings.Contains(out, "A") || !strings.Contains(out, "B") {
		t.Fatalf("listings missing: %q", out)
	}
	if !strings.Contains(out, "$100 - $200") {
		t.Fatalf("budget missing: %q", out)
	}
}
