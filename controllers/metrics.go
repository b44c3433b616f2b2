package controllers

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	nodeselectControllerReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeselect_controller_reconcile_total",
			Help: "Number of reconciliations by controller.",
		},
		[]string{"controller"},
	)
	nodeselectControllerReconcileErrorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeselect_controller_reconcile_error_total",
			Help: "Number of reconciliation errors by controller.",
		},
		[]string{"controller"},
	)

	deploymentsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeselect_sitedeployments_completed_total",
			Help: "Number of SiteDeployments that finished runtime selection, by phase.",
		},
		[]string{"phase"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		nodeselectControllerReconcileTotal,
		nodeselectControllerReconcileErrorTotal,
		deploymentsCompletedTotal,
	)
}
