package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "neurolog", Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"path", "code"})
	PermDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "neurolog", Name: "perm_decisions_total", Help: "Permission checks by action and outcome",
	}, []string{"action", "allowed"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "neurolog", Name: "handler_errors_total", Help: "Handler errors",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "neurolog", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, PermDecisions, HandlerErrors, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func CountRequest(path string, code int) {
	HTTPRequests.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

func CountDecision(action string, allowed bool) {
	PermDecisions.WithLabelValues(action, strconv.FormatBool(allowed)).Inc()
}
