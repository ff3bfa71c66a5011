// Package metrics exposes Prometheus instrumentation for the funding core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProjectsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "givepool_projects_created_total",
		Help: "Number of project instances created",
	})

	DonationsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "givepool_donations_accepted_total",
		Help: "Number of accepted donations by asset",
	}, []string{"asset"})

	DonationVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "givepool_donation_volume_subunits_total",
		Help: "Cumulative accepted donation amount in subunits by asset",
	}, []string{"asset"})

	DonationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "givepool_donations_rejected_total",
		Help: "Number of rejected donations by error code",
	}, []string{"code"})

	ReleasesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "givepool_releases_completed_total",
		Help: "Number of successful escrow releases",
	})

	RefundsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "givepool_refunds_issued_total",
		Help: "Number of donor refunds paid out",
	})

	ReentrantCallsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "givepool_reentrant_calls_rejected_total",
		Help: "Number of calls rejected by the per-instance reentrancy guard",
	})

	DonateDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "givepool_donate_duration_ms",
		Help:    "Latency of the donation path in milliseconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	})

	LeaderboardCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "givepool_leaderboard_cache_total",
		Help: "Leaderboard cache lookups by outcome",
	}, []string{"outcome"})
)
