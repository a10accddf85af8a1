package vault

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	operationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timevault",
		Subsystem: "vault",
		Name:      "operations_total",
		Help:      "Count of processed vault operations",
	}, []string{"operation", "result"})

	// Payouts are counted rather than summed. Coin amounts are uint64 and
	// a float64 counter cannot hold them exactly above 2^53. Exact totals
	// are the ledger balances.
	payoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timevault",
		Subsystem: "vault",
		Name:      "payouts_total",
		Help:      "Count of successful withdrawals by payout kind",
	}, []string{"kind"})
)

// RegisterMetrics registers the vault collectors with the given registerer.
// Only the first call has an effect.
func RegisterMetrics(r prometheus.Registerer) {
	metricsOnce.Do(func() {
		for _, c := range []prometheus.Collector{operationsTotal, payoutsTotal} {
			if err := r.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	})
}

func observeOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	operationsTotal.WithLabelValues(op, result).Inc()
}

func observePayout(p *Payout) {
	payoutsTotal.WithLabelValues(payoutKind(p)).Inc()
}

func payoutKind(p *Payout) string {
	switch {
	case p.Total() == 0:
		return "empty"
	case p.Penalized:
		return "early"
	default:
		return "matured"
	}
}
