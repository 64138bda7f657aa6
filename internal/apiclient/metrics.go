package apiclient

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_requests_total",
				Help: "Total number of requests sent to the booking backend.",
			},
			[]string{"method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_request_duration_seconds",
				Help:    "Latency of requests sent to the booking backend.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
	if err := reg.Register(m.requests); err != nil {
		return nil, err
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// observe is a no-op on a nil receiver so clients built without metrics work unchanged.
func (m *metrics) observe(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	path = routeOf(path)
	m.requests.WithLabelValues(method, path, status).Inc()
	m.duration.WithLabelValues(method, path).Observe(d.Seconds())
}

// staticSegments are the literal path segments of the backend API. Anything
// else is an identifier and is collapsed to keep label cardinality bounded.
var staticSegments = map[string]bool{
	"auth": true, "login": true, "register": true,
	"hospitals": true, "doctors": true, "appointments": true, "cancel": true,
	"user": true, "profile": true,
}

func routeOf(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segs {
		if s != "" && !staticSegments[s] {
			segs[i] = ":id"
		}
	}
	return "/" + strings.Join(segs, "/")
}
