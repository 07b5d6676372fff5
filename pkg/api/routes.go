package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes registers the report endpoints under /api/v1.
func SetupRoutes(router *mux.Router, handlers *Handlers) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	reports := api.PathPrefix("/reports").Subrouter()
	reports.HandleFunc("", handlers.ListReports).Methods(http.MethodGet)
	reports.HandleFunc("/{name}", handlers.GetReport).Methods(http.MethodGet)
	reports.HandleFunc("/{name}/curves/{index:[0-9]+}", handlers.GetCurve).Methods(http.MethodGet)
}

// NewRouter builds the full handler: routes, logging, recovery and CORS.
func NewRouter(handlers *Handlers, origins []string) http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers)

	router.Use(LoggingMiddleware)
	router.Use(RecoveryMiddleware)

	return CORS(router, origins)
}
