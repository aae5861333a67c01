package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for lifecycle operations.
type Metrics struct {
	policiesCreated   prometheus.Counter
	policiesRenewed   prometheus.Counter
	policiesCancelled prometheus.Counter
	claimsSubmitted   prometheus.Counter
	claimsApproved    prometheus.Counter
	claimsRejected    prometheus.Counter
}

// New creates and registers all counters on the default registry.
func New() *Metrics {
	return &Metrics{
		policiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "policyflow_policies_created_total",
			Help: "Total number of policies created",
		}),
		policiesRenewed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "policyflow_policies_renewed_total",
			Help: "Total number of policies renewed",
		}),
		policiesCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "policyflow_policies_cancelled_total",
			Help: "Total number of policies cancelled",
		}),
		claimsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "policyflow_claims_submitted_total",
			Help: "Total number of claims submitted",
		}),
		claimsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "policyflow_claims_approved_total",
			Help: "Total number of claims approved",
		}),
		claimsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "policyflow_claims_rejected_total",
			Help: "Total number of claims rejected",
		}),
	}
}

func (m *Metrics) PolicyCreated()   { m.policiesCreated.Inc() }
func (m *Metrics) PolicyRenewed()   { m.policiesRenewed.Inc() }
func (m *Metrics) PolicyCancelled() { m.policiesCancelled.Inc() }
func (m *Metrics) ClaimSubmitted()  { m.claimsSubmitted.Inc() }
func (m *Metrics) ClaimApproved()   { m.claimsApproved.Inc() }
func (m *Metrics) ClaimRejected()   { m.claimsRejected.Inc() }
