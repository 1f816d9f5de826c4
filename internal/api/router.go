package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/wonny/retailpulse/internal/api/handlers"
	"github.com/wonny/retailpulse/pkg/logger"
)

// Probe checks one dependency of the server
type Probe func(ctx context.Context) error

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routing lives in this function only
func NewRouter(results *handlers.ResultsHandler, refresh *handlers.RefreshHandler, probes map[string]Probe, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(probes)).Methods("GET")

	// API v1
	api := r.PathPrefix("/api/v1").Subrouter()

	// Run
	api.HandleFunc("/run", results.GetRun).Methods("GET")
	api.HandleFunc("/stages", results.GetStages).Methods("GET")
	api.HandleFunc("/quality", results.GetQuality).Methods("GET")

	// Promotions
	api.HandleFunc("/promotions/daily", results.GetPromotionDaily).Methods("GET")
	api.HandleFunc("/promotions/lift", results.GetPromotionLift).Methods("GET")
	api.HandleFunc("/products/top", results.GetTopProducts).Methods("GET")
	api.HandleFunc("/funnel", results.GetFunnel).Methods("GET")

	// Customers
	api.HandleFunc("/loyalty", results.GetLoyalty).Methods("GET")
	api.HandleFunc("/segments", results.GetSegments).Methods("GET")
	api.HandleFunc("/customers/{id}", results.GetCustomer).Methods("GET")
	api.HandleFunc("/events", results.GetEvents).Methods("GET")
	api.HandleFunc("/notifications", results.GetNotifications).Methods("GET")

	// Inventory
	api.HandleFunc("/inventory", results.GetInventory).Methods("GET")
	api.HandleFunc("/inventory/regions", results.GetRegionRisk).Methods("GET")

	if refresh != nil {
		api.HandleFunc("/refresh", refresh.Refresh).Methods("POST")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return cors(gorillahandlers.CompressHandler(r))
}

// healthCheckHandler returns server health status with one entry per probe.
// Any failing probe turns the response into 503.
func healthCheckHandler(probes map[string]Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ok"
		code := http.StatusOK
		checks := make(map[string]string, len(probes))
		for name, probe := range probes {
			if err := probe(ctx); err != nil {
				checks[name] = err.Error()
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  status,
			"service": "retailpulse-api",
			"checks":  checks,
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
