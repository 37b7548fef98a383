// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nightchill"

var (
	CheckInsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Total number of recorded check-ins",
		},
		[]string{"location_type"},
	)

	LevelUpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Total number of journey level increases",
		},
		[]string{"level"},
	)

	MilestonesAwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "milestones_awarded_total",
			Help:      "Total number of milestone badges awarded",
		},
		[]string{"milestone_id"},
	)

	RewardsIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_issued_total",
			Help:      "Total number of rewards issued",
		},
		[]string{"type"},
	)

	RewardsRedeemedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_redeemed_total",
			Help:      "Total number of rewards redeemed",
		},
		[]string{"type", "channel"},
	)

	VouchersExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vouchers_expired_total",
			Help:      "Total number of vouchers transitioned to expired",
		},
	)

	RuleTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_triggers_total",
			Help:      "Total number of engagement rule triggers",
		},
		[]string{"rule_id"},
	)

	ActionExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_executions_total",
			Help:      "Total number of engagement action executions",
		},
		[]string{"action_id", "outcome"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Collectors returns every service collector for registration
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		CheckInsTotal,
		LevelUpsTotal,
		MilestonesAwardedTotal,
		RewardsIssuedTotal,
		RewardsRedeemedTotal,
		VouchersExpiredTotal,
		RuleTriggersTotal,
		ActionExecutionsTotal,
		HTTPRequestDuration,
	}
}
