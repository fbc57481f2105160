package payments

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var unappliedPayments = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "portal_payment_unapplied_total",
	Help: "Provider-approved payments the invoice ledger could not apply.",
}, []string{"provider"})
