package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all Gatherly metrics
const namespace = "gatherly"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo exposes application version information as labels (always set to 1)
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// HTTPRequests counts handled HTTP requests by method and status code
var HTTPRequests = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests handled, by method and status code",
	},
	[]string{"method", "status"},
)

// EventOperations counts event lifecycle operations by operation and outcome
var EventOperations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_operations_total",
		Help:      "Event lifecycle operations (create, update, delete, attend, comment) by outcome",
	},
	[]string{"operation", "outcome"},
)

// WebsocketConnections tracks currently open realtime sessions
var WebsocketConnections = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_connections",
		Help:      "Currently connected realtime channel sessions",
	},
)

// DatabaseUp reports store connectivity as seen by the health check (1=up)
var DatabaseUp = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "database_up",
		Help:      "Database connectivity as reported by the last health check (1=connected)",
	},
)

// Init sets the application info metric and registers runtime collectors.
// Call once at startup.
func Init(version, commit, buildDate string) {
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
