package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes the default Prometheus registry. Domain packages register
// their own counters via promauto.
func Handler() http.Handler {
	return promhttp.Handler()
}
