package metrics

import (
	"telegram-job-alerts/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		usersRegisteredTotal,
		usersByTierGauge,
		telegramCommandsReceivedTotal,
		telegramRateLimitTriggeredTotal,
	)
}

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of new users registered.",
		},
	)

	usersByTierGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "users_total",
			Help: "Current number of users by tier.",
		},
		[]string{"tier"}, // 'free', 'premium'
	)

	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming messages and commands from users.",
		},
		[]string{"command"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)
)

func IncUsersRegistered() {
	usersRegisteredTotal.Inc()
}

func SetUsersByTier(counts map[model.Tier]int) {
	for _, tier := range []model.Tier{model.TierFree, model.TierPremium} {
		if count, ok := counts[tier]; ok {
			usersByTierGauge.WithLabelValues(string(tier)).Set(float64(count))
		}
	}
}

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}
