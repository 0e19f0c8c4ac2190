package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes for the API server.
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	// Public supply endpoints
	r.HandleFunc("/circulating-supply", s.handleCirculatingSupply).Methods(http.MethodGet)
	r.HandleFunc("/total-supply", s.handleTotalSupply).Methods(http.MethodGet)
	r.HandleFunc("/supply-details", s.handleSupplyDetails).Methods(http.MethodGet)

	// Operational endpoints
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/cache/clear", s.handleCacheClear).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
