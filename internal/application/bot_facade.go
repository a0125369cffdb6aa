package application

import (
	"context"
	"fmt"
	"strings"

	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/usecase"
)

// BotFacade composes usecases into high-level bot commands.
// Keep the facade methods returning strings so the Telegram adapter just forwards them to the chat.
type BotFacade struct {
	UserUC  usecase.UserUseCase
	QuotaUC usecase.QuotaUseCase
	StatsUC usecase.StatsUseCase

	freeLimit int
}

func NewBotFacade(
	userUC usecase.UserUseCase,
	quotaUC usecase.QuotaUseCase,
	statsUC usecase.StatsUseCase,
	freeLimit int,
) *BotFacade {
	return &BotFacade{
		UserUC:    userUC,
		QuotaUC:   quotaUC,
		StatsUC:   statsUC,
		freeLimit: freeLimit,
	}
}

// HandleStart registers or fetches the user and returns a welcome string.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, username string) (string, error) {
	u, err := b.UserUC.RegisterOrFetch(ctx, tgID, username)
	if err != nil {
		return "", fmt.Errorf("register/fetch user: %w", err)
	}
	if u.IsPremium() {
		return "Welcome back! Premium alerts are active — new matching jobs arrive automatically.", nil
	}
	return fmt.Sprintf(
		"👋 Welcome to Job Alerts!\n\nUse /jobs to get up to %d fresh freelance jobs per day.\nUse /filter to set skills and budget preferences.\nUpgrade with /upgrade for automatic alerts on every matching job.",
		b.freeLimit), nil
}

// HandleJobs serves the on-demand batch and appends a quota footer.
func (b *BotFacade) HandleJobs(ctx context.Context, tgID int64, username string) (string, error) {
	u, err := b.UserUC.RegisterOrFetch(ctx, tgID, username)
	if err != nil {
		return "", fmt.Errorf("register/fetch user: %w", err)
	}

	batch, status, err := b.QuotaUC.RequestOnDemand(ctx, u.ID)
	if err != nil {
		return "", fmt.Errorf("request on-demand batch: %w", err)
	}

	switch status {
	case model.QuotaStatusOK:
		return FormatBatch(fmt.Sprintf("🆕 %d new jobs for you:", len(batch)), batch) + "\n\n" + b.quotaFooter(ctx, tgID), nil
	case model.QuotaStatusExhaustedQuota:
		return fmt.Sprintf("⏳ Daily limit reached (%d jobs/day on the free tier).\nYour quota resets 24h after your first request.\nUpgrade with /upgrade for automatic alerts on every match.", b.freeLimit), nil
	case model.QuotaStatusExhaustedSupply:
		return "✅ You're all caught up! No new jobs right now — try again later.", nil
	case model.QuotaStatusTemporarilyUnavailable:
		return "⚠️ Things are busy right now, please try again in a moment.", nil
	default:
		return "", fmt.Errorf("unknown quota status %q", status)
	}
}

func (b *BotFacade) quotaFooter(ctx context.Context, tgID int64) string {
	u, err := b.UserUC.RegisterOrFetch(ctx, tgID, "")
	if err != nil {
		return ""
	}
	if u.IsPremium() {
		return "⭐ Premium: automatic alerts are on."
	}
	remaining := b.freeLimit - u.SentToday
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("📬 %d of %d daily jobs remaining.", remaining, b.freeLimit)
}

// HandleSetSkills replaces the skill filter.
func (b *BotFacade) HandleSetSkills(ctx context.Context, tgID int64, skills []string) (string, error) {
	u, err := b.UserUC.RegisterOrFetch(ctx, tgID, "")
	if err != nil {
		return "", err
	}
	prefs := u.Preferences
	prefs.Skills = skills
	if _, err := b.UserUC.SetPreferences(ctx, tgID, prefs); err != nil {
		return "", fmt.Errorf("set preferences: %w", err)
	}
	if len(skills) == 0 {
		return "Skill filter cleared — all jobs will match.", nil
	}
	return fmt.Sprintf("🏷 Skill filter set: %s", strings.Join(skills, ", ")), nil
}

// HandleSetBudget replaces the budget bounds; nil means unbounded.
func (b *BotFacade) HandleSetBudget(ctx context.Context, tgID int64, min, max *int) (string, error) {
	u, err := b.UserUC.RegisterOrFetch(ctx, tgID, "")
	if err != nil {
		return "", err
	}
	prefs := u.Preferences
	prefs.MinBudget = min
	prefs.MaxBudget = max
	if _, err := b.UserUC.SetPreferences(ctx, tgID, prefs); err != nil {
		return "", fmt.Errorf("set preferences: %w", err)
	}
	if budget := formatBudget(min, max); budget != "" {
		return fmt.Sprintf("💰 Budget filter set: %s", budget), nil
	}
	return "Budget filter cleared.", nil
}

// HandleSetPlatform restricts matches to one platform; empty clears it.
func (b *BotFacade) HandleSetPlatform(ctx context.Context, tgID int64, platform string) (string, error) {
	u, err := b.UserUC.RegisterOrFetch(ctx, tgID, "")
	if err != nil {
		return "", err
	}
	prefs := u.Preferences
	prefs.Platform = platform
	if _, err := b.UserUC.SetPreferences(ctx, tgID, prefs); err != nil {
		return "", fmt.Errorf("set preferences: %w", err)
	}
	if platform == "" {
		return "Platform filter cleared.", nil
	}
	return fmt.Sprintf("🌐 Platform filter set: %s", platform), nil
}

// HandleClearFilters resets all preferences.
func (b *BotFacade) HandleClearFilters(ctx context.Context, tgID int64) (string, error) {
	if _, err := b.UserUC.SetPreferences(ctx, tgID, model.Preferences{}); err != nil {
		return "", fmt.Errorf("clear preferences: %w", err)
	}
	return "All filters cleared — every job will match.", nil
}

// HandleFilters shows the current preferences.
func (b *BotFacade) HandleFilters(ctx context.Context, tgID int64, username string) (string, error) {
	u, err := b.UserUC.RegisterOrFetch(ctx, tgID, username)
	if err != nil {
		return "", err
	}
	p := u.Preferences
	var sb strings.Builder
	sb.WriteString("🔍 Your filters:\n")
	if len(p.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("  Skills: %s\n", strings.Join(p.Skills, ", ")))
	} else {
		sb.WriteString("  Skills: any\n")
	}
	if budget := formatBudget(p.MinBudget, p.MaxBudget); budget != "" {
		sb.WriteString(fmt.Sprintf("  Budget: %s\n", budget))
	} else {
		sb.WriteString("  Budget: any\n")
	}
	if p.Platform != "" {
		sb.WriteString(fmt.Sprintf("  Platform: %s\n", p.Platform))
	} else {
		sb.WriteString("  Platform: any\n")
	}
	return sb.String(), nil
}

// HandleUpgrade marks the user premium. Payment collection is out of band;
// this is the hook a billing integration would call after a confirmed charge.
func (b *BotFacade) HandleUpgrade(ctx context.Context, tgID int64, username string) (string, error) {
	u, err := b.UserUC.RegisterOrFetch(ctx, tgID, username)
	if err != nil {
		return "", fmt.Errorf("register/fetch user: %w", err)
	}
	if u.IsPremium() {
		return "You already have Premium. Matching jobs arrive automatically.", nil
	}
	if err := b.UserUC.SetTier(ctx, u.ID, model.TierPremium); err != nil {
		return "", fmt.Errorf("set tier: %w", err)
	}
	return "⭐ Upgraded to Premium!\nNew jobs matching your filters will now arrive automatically every hour.", nil
}

// HandleHelp returns the command reference.
func (b *BotFacade) HandleHelp(ctx context.Context) (string, error) {
	return strings.Join([]string{
		"Available commands:",
		"/jobs — get your daily batch of fresh jobs",
		"/filter — set skill, budget and platform filters",
		"/filters — show your current filters",
		"/clear — clear all filters",
		"/upgrade — get automatic alerts for every matching job",
		"/help — this message",
	}, "\n"), nil
}

// HandleStats builds the admin-facing formatted stats string.
func (b *BotFacade) HandleStats(ctx context.Context) (string, error) {
	r, err := b.StatsUC.Summary(ctx)
	if err != nil {
		return "", fmt.Errorf("stats summary: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("📊 System Statistics:\n\n")
	sb.WriteString(fmt.Sprintf("👥 Users: %d (active 24h: %d)\n", r.TotalUsers, r.ActiveLast24h))
	for tier, n := range r.UsersByTier {
		sb.WriteString(fmt.Sprintf("  - %s: %d\n", tier, n))
	}
	sb.WriteString("\n📋 Listings by platform:\n")
	for platform, n := range r.ListingsByPlatform {
		sb.WriteString(fmt.Sprintf("  - %s: %d\n", platform, n))
	}
	sb.WriteString(fmt.Sprintf("\n📬 Deliveries: %d total, %d in 24h\n", r.DeliveriesTotal, r.DeliveriesLast24h))
	sb.WriteString(fmt.Sprintf("⏳ Pending alerts: %d\n", r.PendingAlerts))
	if r.LastFetchAt != nil {
		sb.WriteString(fmt.Sprintf("🕐 Last fetch: %s\n", r.LastFetchAt.UTC().Format("2006-01-02 15:04 UTC")))
	}
	return sb.String(), nil
}
