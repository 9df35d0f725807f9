package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RegistrationsTotal counts member registrations by outcome
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_registrations_total",
		Help: "Member registrations by outcome.",
	}, []string{"result"})

	// WebhookEventsTotal counts processed gateway webhook events
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_webhook_events_total",
		Help: "Gateway webhook events by type and outcome.",
	}, []string{"type", "result"})
)

// Handler exposes the prometheus scrape endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
