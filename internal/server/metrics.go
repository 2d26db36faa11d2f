package server

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	requests   metric.Int64Counter
	duration   metric.Float64Histogram
	wsMessages metric.Int64Counter
	wsClients  metric.Int64UpDownCounter
}

func newMetrics(m metric.Meter) (*metrics, error) {
	var (
		out metrics
		err error
	)
	out.requests, err = m.Int64Counter(
		"http.server.requests",
		metric.WithDescription("HTTP requests by route and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}
	out.duration, err = m.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	out.wsMessages, err = m.Int64Counter(
		"ws.messages",
		metric.WithDescription("WebSocket messages received by type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating message counter: %w", err)
	}
	out.wsClients, err = m.Int64UpDownCounter(
		"ws.clients",
		metric.WithDescription("Connected WebSocket clients"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating client gauge: %w", err)
	}
	return &out, nil
}

func (m *metrics) instrument(route string, h http.HandlerFunc) http.Handler {
	routeAttr := attribute.String("route", route)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		attrs := metric.WithAttributes(routeAttr, attribute.Int("status", rec.status))
		m.requests.Add(r.Context(), 1, attrs)
		m.duration.Record(r.Context(), float64(time.Since(start).Microseconds())/1000, attrs)
	})
}

// statusRecorder captures the response status. It passes Hijack through so
// the WebSocket upgrade keeps working behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.status = http.StatusSwitchingProtocols
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
