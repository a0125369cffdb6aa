//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/usecase"
)

type quotaFixture struct {
	users    *memUserRepo
	listings *memListingRepo
	ledger   *memLedgerRepo
	uc       usecase.QuotaUseCase
}

func newQuotaFixture(freeLimit, premiumCeiling int) *quotaFixture {
	users := newMemUserRepo()
	ledger := newMemLedgerRepo()
	alerts := newMemAlertRepo(ledger)
	listings := newMemListingRepo(ledger, alerts)
	uc := usecase.NewQuotaUseCase(users, listings, ledger, &mockTxManager{}, freeLimit, premiumCeiling, newLogger())
	return &quotaFixture{users: users, listings: listings, ledger: ledger, uc: uc}
}

func (f *quotaFixture) seedListings(t *testing.T, n int, base time.Time) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		l := newTestListing("remoteok", fixtureID(i), "job", base.Add(time.Duration(i)*time.Minute))
		if _, err := f.listings.Insert(ctx, nil, l); err != nil {
			t.Fatalf("seed listing: %v", err)
		}
	}
}

func fixtureID(i int) string {
	return string(rune('a' + i))
}

func TestRequestOnDemand_FreeTier(t *testing.T) {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	t.Run("first call serves the free limit, newest first", func(t *testing.T) {
		f := newQuotaFixture(5, 25)
		_ = f.users.Save(ctx, nil, newTestUser("u1", 100, model.TierFree))
		f.seedListings(t, 7, base)

		batch, status, err := f.uc.RequestOnDemand(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status != model.QuotaStatusOK {
			t.Fatalf("want ok, got %s", status)
		}
		if len(batch) != 5 {
			t.Fatalf("want 5 listings, got %d", len(batch))
		}
		for i := 1; i < len(batch); i++ {
			if batch[i].PostedAt.After(batch[i-1].PostedAt) {
				t.Fatalf("batch not sorted newest first at index %d", i)
			}
		}
	})

	t.Run("second call with supply left reports exhausted_quota", func(t *testing.T) {
		f := newQuotaFixture(5, 25)
		_ = f.users.Save(ctx, nil, newTestUser("u1", 100, model.TierFree))
		f.seedListings(t, 7, base)

		if _, _, err := f.uc.RequestOnDemand(ctx, "u1"); err != nil {
			t.Fatalf("first call: %v", err)
		}
		batch, status, err := f.uc.RequestOnDemand(ctx, "u1")
		if err != nil {
			t.Fatalf("second call: %v", err)
		}
		if status != model.QuotaStatusExhaustedQuota {
			t.Fatalf("want exhausted_quota, got %s", status)
		}
		if batch != nil {
			t.Fatalf("want nil batch, got %d listings", len(batch))
		}
	})

	t.Run("second call with no supply left reports exhausted_supply", func(t *testing.T) {
		f := newQuotaFixture(5, 25)
		_ = f.users.Save(ctx, nil, newTestUser("u1", 100, model.TierFree))
		f.seedListings(t, 3, base)

		batch, status, err := f.uc.RequestOnDemand(ctx, "u1")
		if err != nil || status != model.QuotaStatusOK || len(batch) != 3 {
			t.Fatalf("first call: batch=%d status=%s err=%v", len(batch), status, err)
		}
		_, status, err = f.uc.RequestOnDemand(ctx, "u1")
		if err != nil {
			t.Fatalf("second call: %v", err)
		}
		if status != model.QuotaStatusExhaustedSupply {
			t.Fatalf("want exhausted_supply, got %s", status)
		}
	})

	t.Run("each delivery is ledgered exactly once", func(t *testing.T) {
		f := newQuotaFixture(5, 25)
		_ = f.users.Save(ctx, nil, newTestUser("u1", 100, model.TierFree))
		f.seedListings(t, 7, base)

		_, _, _ = f.uc.RequestOnDemand(ctx, "u1")
		n, _ := f.ledger.CountAll(ctx, nil)
		if n != 5 {
			t.Fatalf("want 5 ledger entries, got %d", n)
		}
	})
}

func TestRequestOnDemand_WindowRollover(t *testing.T) {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	t.Run("quota resets once 24h have passed since the first request", func(t *testing.T) {
		f := newQuotaFixture(5, 25)
		u := newTestUser("u1", 100, model.TierFree)
		windowStart := time.Now().Add(-25 * time.Hour)
		u.WindowStartedAt = &windowStart
		u.SentToday = 5
		_ = f.users.Save(ctx, nil, u)
		f.seedListings(t, 3, base)

		batch, status, err := f.uc.RequestOnDemand(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status != model.QuotaStatusOK || len(batch) != 3 {
			t.Fatalf("want 3 listings after rollover, got status=%s len=%d", status, len(batch))
		}

		saved, _ := f.users.FindByID(ctx, nil, "u1")
		if saved.SentToday != 3 {
			t.Fatalf("want sent_today=3 after rollover, got %d", saved.SentToday)
		}
	})

	t.Run("no reset inside the window", func(t *testing.T) {
		f := newQuotaFixture(5, 25)
		u := newTestUser("u1", 100, model.TierFree)
		windowStart := time.Now().Add(-time.Hour)
		u.WindowStartedAt = &windowStart
		u.SentToday = 5
		_ = f.users.Save(ctx, nil, u)
		f.seedListings(t, 3, base)

		_, status, err := f.uc.RequestOnDemand(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status != model.QuotaStatusExhaustedQuota {
			t.Fatalf("want exhausted_quota inside window, got %s", status)
		}
	})
}

func TestRequestOnDemand_PremiumTier(t *testing.T) {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	t.Run("premium is bounded by the batch ceiling, not the daily limit", func(t *testing.T) {
		f := newQuotaFixture(5, 10)
		_ = f.users.Save(ctx, nil, newTestUser("p1", 200, model.TierPremium))
		f.seedListings(t, 8, base)

		batch, status, err := f.uc.RequestOnDemand(ctx, "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status != model.QuotaStatusOK || len(batch) != 8 {
			t.Fatalf("want all 8, got status=%s len=%d", status, len(batch))
		}
	})

	t.Run("premium never sees exhausted_quota", func(t *testing.T) {
		f := newQuotaFixture(5, 10)
		_ = f.users.Save(ctx, nil, newTestUser("p1", 200, model.TierPremium))
		f.seedListings(t, 8, base)

		_, _, _ = f.uc.RequestOnDemand(ctx, "p1")
		_, status, err := f.uc.RequestOnDemand(ctx, "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status != model.QuotaStatusExhaustedSupply {
			t.Fatalf("want exhausted_supply, got %s", status)
		}
	})
}

func TestRequestOnDemand_UnknownUser(t *testing.T) {
	f := newQuotaFixture(5, 25)
	if _, _, err := f.uc.RequestOnDemand(context.Background(), "ghost"); err == nil {
		t.Fatal("want error for unknown user")
	}
}
