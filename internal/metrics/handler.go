package metrics

import (
	"log/slog"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxScrapes bounds concurrent scrapes of the gateway's /metrics route.
const maxScrapes = 4

// HTTPHandler serves the gate and build metrics gathered in reg. A collector
// that fails to gather is logged and skipped; the other families are still
// served. The handler counts its own scrapes in reg as
// promhttp_metric_handler_requests_total.
func HTTPHandler(reg *prom.Registry, logger *slog.Logger) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:            slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		ErrorHandling:       promhttp.ContinueOnError,
		MaxRequestsInFlight: maxScrapes,
		EnableOpenMetrics:   true,
	})
	return promhttp.InstrumentMetricHandler(reg, h)
}
