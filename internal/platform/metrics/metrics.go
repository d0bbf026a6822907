package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	VaultsDeployed     prometheus.Counter
	Withdrawals        *prometheus.CounterVec
	TimeLocksSet       prometheus.Counter
	OwnershipTransfers *prometheus.CounterVec
	RejectedOperations *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		VaultsDeployed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_vaults_deployed_total",
			Help: "Total number of vaults deployed by the factory",
		}),
		Withdrawals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_withdrawals_total",
			Help: "Total number of successful withdrawals by asset kind",
		}, []string{"asset_kind"}),
		TimeLocksSet: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_timelocks_set_total",
			Help: "Total number of successful time-lock changes",
		}),
		OwnershipTransfers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_ownership_transfers_total",
			Help: "Total number of ownership transfers by mode",
		}, []string{"mode"}),
		RejectedOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_rejected_operations_total",
			Help: "Total number of vault operations rejected, by reason",
		}, []string{"reason"}),
	}
}

// IncWithdrawal records a successful withdrawal. kind is "native" or "token".
func (m *Metrics) IncWithdrawal(kind string) {
	if m == nil {
		return
	}
	m.Withdrawals.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncVaultDeployed() {
	if m == nil {
		return
	}
	m.VaultsDeployed.Inc()
}

func (m *Metrics) IncTimeLockSet() {
	if m == nil {
		return
	}
	m.TimeLocksSet.Inc()
}

// IncOwnershipTransfer records a transfer. mode is "direct" or "registry".
func (m *Metrics) IncOwnershipTransfer(mode string) {
	if m == nil {
		return
	}
	m.OwnershipTransfers.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.RejectedOperations.WithLabelValues(reason).Inc()
}
