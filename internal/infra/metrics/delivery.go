package metrics

import (
	"telegram-job-alerts/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		deliveriesTotal,
		deliveryFailuresTotal,
		pendingAlertsGauge,
		quotaOutcomesTotal,
	)
}

var (
	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Total number of listings delivered to users, labeled by channel.",
		},
		[]string{"channel"}, // 'on_demand', 'alert'
	)

	deliveryFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "delivery_failures_total",
			Help: "Total number of alert batches whose send failed and stayed queued.",
		},
	)

	pendingAlertsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_alerts",
			Help: "Current number of rows in the pending alert queue.",
		},
	)

	quotaOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_outcomes_total",
			Help: "On-demand request outcomes by status.",
		},
		[]string{"status"}, // 'ok', 'exhausted_quota', 'exhausted_supply', 'temporarily_unavailable'
	)
)

func IncDeliveries(channel model.DeliveryChannel, count int) {
	deliveriesTotal.WithLabelValues(string(channel)).Add(float64(count))
}

func IncDeliveryFailures() {
	deliveryFailuresTotal.Inc()
}

func SetPendingAlerts(count int) {
	pendingAlertsGauge.Set(float64(count))
}

func IncQuotaOutcome(status model.QuotaStatus) {
	quotaOutcomesTotal.WithLabelValues(string(status)).Inc()
}
