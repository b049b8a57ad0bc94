package compute

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	launchCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodegroup",
			Subsystem: "provisioner",
			Name:      "launch_cycles_total",
			Help:      "Total number of launch cycles by tag",
		},
		[]string{"tag"},
	)

	nodesProvisionedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodegroup",
			Subsystem: "provisioner",
			Name:      "nodes_provisioned_total",
			Help:      "Total number of nodes provisioned and configured by tag",
		},
		[]string{"tag"},
	)

	configureFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodegroup",
			Subsystem: "provisioner",
			Name:      "configure_failures_total",
			Help:      "Total number of per-node configuration failures by tag",
		},
		[]string{"tag"},
	)

	provisionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nodegroup",
			Subsystem: "provisioner",
			Name:      "provision_duration_seconds",
			Help:      "Duration of full provisioning calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1h
		},
		[]string{"tag"},
	)

	nodesTerminatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodegroup",
			Subsystem: "teardown",
			Name:      "nodes_terminated_total",
			Help:      "Total number of nodes confirmed terminated by tag",
		},
		[]string{"tag"},
	)

	cascadeDeletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodegroup",
			Subsystem: "teardown",
			Name:      "cascade_deletions_total",
			Help:      "Total number of ancillary resource cascade deletions by resource kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		launchCyclesTotal,
		nodesProvisionedTotal,
		configureFailuresTotal,
		provisionDuration,
		nodesTerminatedTotal,
		cascadeDeletionsTotal,
	)
}
