// Package metrics registers the Prometheus counters exported by the
// campaign backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_emails_sent_total",
			Help: "Total emails accepted by the mail transport",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_email_failures_total",
			Help: "Total per-recipient dispatch failures",
		},
	)

	OpensTracked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_opens_tracked_total",
			Help: "Total open-beacon events ingested",
		},
	)

	ClicksTracked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_clicks_tracked_total",
			Help: "Total click-redirect events ingested",
		},
	)
)

// Init registers all counters with the default registry. Call once at
// process start.
func Init() {
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(EmailFailures)
	prometheus.MustRegister(OpensTracked)
	prometheus.MustRegister(ClicksTracked)
}
