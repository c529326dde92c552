// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// requestMetrics tracks outgoing requests. A nil *requestMetrics
// records nothing.
type requestMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newRequestMetrics(registerer prometheus.Registerer) (*requestMetrics, error) {
	if registerer == nil {
		return nil, nil
	}

	m := &requestMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matrixwire",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Outgoing Matrix requests by endpoint, HTTP status and errcode",
		}, []string{"endpoint", "status", "errcode"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matrixwire",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Latency of outgoing Matrix requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	if err := registerer.Register(m.requests); err != nil {
		return nil, err
	}
	if err := registerer.Register(m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// observe records one finished exchange. status is 0 when the request
// never produced a response.
func (m *requestMetrics) observe(endpoint string, status int, errcode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	statusLabel := "none"
	if status != 0 {
		statusLabel = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(endpoint, statusLabel, errcode).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
