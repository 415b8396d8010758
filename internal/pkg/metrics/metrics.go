package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SwapsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beethoven_swaps_total",
		Help: "The total number of routed swaps",
	}, []string{"protocol", "status"})

	LiquidityOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beethoven_liquidity_ops_total",
		Help: "The total number of routed liquidity operations",
	}, []string{"protocol", "op", "status"})

	RiskRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beethoven_risk_rejects_total",
		Help: "Operations rejected by the policy engine",
	}, []string{"reason"})

	RouterRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beethoven_router_rejects_total",
		Help: "Total router rejections before dispatch",
	}, []string{"reason"})

	FundFlows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beethoven_fund_flows_total",
		Help: "Fund deposit and withdrawal operations",
	}, []string{"direction", "status"})

	ProposalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beethoven_proposals_total",
		Help: "Proposal lifecycle transitions",
	}, []string{"event"})

	NavUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beethoven_nav_updates_total",
		Help: "NAV crank invocations",
	})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "beethoven_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
