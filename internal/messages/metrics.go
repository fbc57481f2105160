package messages

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var duplicateSends = promauto.NewCounter(prometheus.CounterOpts{
	Name: "portal_message_duplicate_sends_total",
	Help: "Message sends answered with the already stored message for their correlation id.",
})
