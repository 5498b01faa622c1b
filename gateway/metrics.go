package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts gateway activity. Refresh counters double as the contract
// check that valid-token traffic never triggers the refresh protocol.
type Metrics struct {
	RequestsTotal        prometheus.Counter
	RefreshesTotal       prometheus.Counter
	RefreshFailuresTotal prometheus.Counter
	RetriesTotal         prometheus.Counter
}

// NewMetrics registers the gateway counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_client_requests_total",
			Help: "Outbound backend requests, including retries.",
		}),
		RefreshesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_client_token_refreshes_total",
			Help: "Token refresh calls triggered by 401 responses.",
		}),
		RefreshFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_client_token_refresh_failures_total",
			Help: "Token refresh calls that failed and terminated the session.",
		}),
		RetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_client_request_retries_total",
			Help: "Requests replayed after a successful token refresh.",
		}),
	}
}
