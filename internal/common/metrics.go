package common

import "time"

// ObserveChainCall records the duration and outcome of a contract call.
func ObserveChainCall(method string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	PromHistograms[ChainCallDurationSeconds].
		WithLabelValues(method, status).
		Observe(time.Since(start).Seconds())
}

func CountTxRequest(kind, result string) {
	PromCounters[TxRequestsTotal].WithLabelValues(kind, result).Inc()
}

func CountChainReadFailure(value string) {
	PromCounters[ChainReadFailuresTotal].WithLabelValues(value).Inc()
}

func CountSafeHostEvent(event string) {
	PromCounters[SafeHostEventsTotal].WithLabelValues(event).Inc()
}

func SetPrizeEstimate(asset string, value float64) {
	PromGauges[PrizeEstimate].WithLabelValues(asset).Set(value)
}
