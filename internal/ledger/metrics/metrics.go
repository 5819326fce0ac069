package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CharitiesCreated  prometheus.Counter
	DonationsMade     prometheus.Counter
	DonatedValue      prometheus.Counter
	FeesCollected     prometheus.Counter
	RejectedDonations *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		CharitiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chariledger_charities_created_total",
			Help: "Total number of charities registered in the ledger",
		}),
		DonationsMade: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chariledger_donations_made_total",
			Help: "Total number of accepted donations",
		}),
		DonatedValue: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chariledger_donated_value_total",
			Help: "Total net value credited to charities, in base units",
		}),
		FeesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chariledger_fees_collected_total",
			Help: "Total platform fee value collected, in base units",
		}),
		RejectedDonations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chariledger_rejected_donations_total",
			Help: "Total number of rejected donations by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncrementCharitiesCreated() {
	m.CharitiesCreated.Inc()
}

// ObserveDonation records one accepted donation with its net and fee
// split.
func (m *Metrics) ObserveDonation(net, fee uint64) {
	m.DonationsMade.Inc()
	m.DonatedValue.Add(float64(net))
	m.FeesCollected.Add(float64(fee))
}

func (m *Metrics) IncrementRejectedDonations(reason string) {
	m.RejectedDonations.WithLabelValues(reason).Inc()
}
