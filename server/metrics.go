// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// serverMetrics tracks served requests. A nil *serverMetrics records
// nothing.
type serverMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newServerMetrics(registerer prometheus.Registerer) (*serverMetrics, error) {
	if registerer == nil {
		return nil, nil
	}

	m := &serverMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matrixwire",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Served Matrix requests by endpoint and HTTP status",
		}, []string{"endpoint", "status"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matrixwire",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "Time to decode, handle and encode a Matrix request",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	for _, collector := range []prometheus.Collector{m.requests, m.duration} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe records one served request. Requests that matched no route
// are counted under endpoint "unmatched".
func (m *serverMetrics) observe(endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "unmatched"
	}
	m.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
