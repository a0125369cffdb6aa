package application

import (
	"fmt"
	"strings"

	"telegram-job-alerts/internal/domain/model"
)

// FormatBatch renders a batch of listings as one Telegram message. Shared by
// the on-demand reply path and the alert gateway so both channels look alike.
func FormatBatch(header string, listings []*model.Listing) string {
	var sb strings.Builder
	if header != "" {
		sb.WriteString(header)
		sb.WriteString("\n\n")
	}
	for i, l := range listings {
		sb.WriteString(FormatListing(l))
		if i < len(listings)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// FormatListing renders one listing block.
func FormatListing(l *model.Listing) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💼 %s\n", l.Title))
	sb.WriteString(fmt.Sprintf("🌐 %s", l.Platform))
	if budget := formatBudget(l.BudgetMin, l.BudgetMax); budget != "" {
		sb.WriteString(fmt.Sprintf("\n💰 %s", budget))
	}
	if len(l.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("\n🏷 %s", strings.Join(l.Skills, ", ")))
	}
	if l.URL != "" {
		sb.WriteString(fmt.Sprintf("\n🔗 %s", l.URL))
	}
	return sb.String()
}

func formatBudget(min, max *int) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("$%d - $%d", *min, *max)
	case min != nil:
		return fmt.Sprintf("from $%d", *min)
	case max != nil:
		return fmt.Sprintf("up to $%d", *max)
	default:
		return ""
	}
}
