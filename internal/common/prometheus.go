package common

import "github.com/prometheus/client_golang/prometheus"

const (
	TxRequestsTotal          = "widget_tx_requests_total"
	ChainReadFailuresTotal   = "widget_chain_read_failures_total"
	PrizeEstimate            = "widget_prize_estimate"
	ChainCallDurationSeconds = "widget_chain_call_duration_seconds"
	SafeHostEventsTotal      = "widget_safe_host_events_total"
)

var (
	PromGauges = map[string]*prometheus.GaugeVec{
		PrizeEstimate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: PrizeEstimate,
			Help: "Last resolved prize estimate per asset",
		}, []string{"asset"}),
	}

	PromCounters = map[string]*prometheus.CounterVec{
		TxRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: TxRequestsTotal,
			Help: "Count of transaction requests by kind and outcome",
		}, []string{"kind", "result"}),
		ChainReadFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: ChainReadFailuresTotal,
			Help: "Count of failed chain reads per derived value",
		}, []string{"value"}),
		SafeHostEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: SafeHostEventsTotal,
			Help: "Count of events received from the safe host",
		}, []string{"event"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		ChainCallDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: ChainCallDurationSeconds,
			Help: "Duration of contract calls",
		}, []string{"method", "status"}),
	}
)
