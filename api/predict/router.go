package predict

import (
	"net/http"

	"github.com/kilianp07/metrotraffic/api/middleware"
	"github.com/kilianp07/metrotraffic/core/logger"
)

// NewRouter mounts the prediction endpoints on mux and wraps the result with
// CORS, request logging and panic recovery.
func NewRouter(mux *http.ServeMux, svc Service, corsOrigins []string, log logger.Logger) http.Handler {
	mux.Handle("/", NewRootHandler(svc))
	mux.Handle("/health", NewHealthHandler(svc))
	mux.Handle("/predict", NewPredictHandler(svc, log))
	return middleware.Recover(log, middleware.Logging(log, middleware.CORS(corsOrigins, mux)))
}
