package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PendingReviews tracks the last observed count per provider
	PendingReviews = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reviewbadge_pending_reviews",
			Help: "Pending review count per provider",
		},
		[]string{"provider"},
	)

	// BadgeTotal tracks the aggregate total rendered on the badge
	BadgeTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reviewbadge_badge_total",
			Help: "Aggregate review total currently published to the badge",
		},
	)

	// CycleTotal counts completed update cycles
	CycleTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewbadge_cycle_total",
			Help: "Total update cycles completed, by outcome",
		},
		[]string{"status"},
	)

	// ProviderErrors counts failed provider checks
	ProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewbadge_provider_errors_total",
			Help: "Total failed provider checks, by provider and error kind",
		},
		[]string{"provider", "kind"},
	)
)

func init() {
	prometheus.MustRegister(PendingReviews)
	prometheus.MustRegister(BadgeTotal)
	prometheus.MustRegister(CycleTotal)
	prometheus.MustRegister(ProviderErrors)
}
