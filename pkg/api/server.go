/*
Yggdrasil REST API

This is the REST API for Yggdrasil, a disk-backed B-tree key/value index.

Version: 1.0.0
Host: localhost:8080
BasePath: /api/v1

SecurityDefinitions:
  - ApiKeyAuth:
    type: apiKey
    in: header
    name: X-API-Key

swagger:meta
*/
package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ssargent/yggdrasil/pkg/index"
)

// Routes builds the full router for the server. Split out of StartServer
// so tests can drive the handlers without a listener.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API key authentication middleware for protected routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.config.APIKey))

		// Health check
		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Tree operations
		r.Get("/trees", s.metrics.InstrumentHandler("GET", "/api/v1/trees", s.handleListTrees))
		r.Put("/trees/{tree}/keys/{key}", s.metrics.InstrumentHandler("PUT", "/api/v1/trees/{tree}/keys/{key}", s.handlePut))
		r.Get("/trees/{tree}/keys/{key}", s.metrics.InstrumentHandler("GET", "/api/v1/trees/{tree}/keys/{key}", s.handleGet))
		r.Delete("/trees/{tree}/keys/{key}", s.metrics.InstrumentHandler("DELETE", "/api/v1/trees/{tree}/keys/{key}", s.handleDelete))

		// Diagnostics
		r.Get("/trees/{tree}/dump", s.metrics.InstrumentHandler("GET", "/api/v1/trees/{tree}/dump", s.handleDump))
		r.Get("/trees/{tree}/stats", s.metrics.InstrumentHandler("GET", "/api/v1/trees/{tree}/stats", s.handleStats))
		r.Get("/trees/{tree}/check", s.metrics.InstrumentHandler("GET", "/api/v1/trees/{tree}/check", s.handleCheck))
	})

	// Swagger documentation (unprotected)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", s.config.Port)),
	))

	return r
}

// StartServer starts the HTTP server with all routes configured
func StartServer(registry *index.Registry, config ServerConfig) error {
	metrics := NewMetrics()
	server := NewServer(registry, config, metrics)

	// Start background metrics updater
	go server.startMetricsUpdater()

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	fmt.Printf("Starting Yggdrasil REST API server on %s\n", addr)
	fmt.Printf("Metrics available at: http://%s/metrics\n", addr)
	log.Fatal(http.ListenAndServe(addr, server.Routes()))

	return nil
}

// startMetricsUpdater refreshes the per-tree gauges every few seconds.
func (s *Server) startMetricsUpdater() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		for _, name := range s.registry.Names() {
			t, err := s.registry.Get(name)
			if err != nil {
				continue
			}
			stats, err := s.statsFor(name, t)
			if err != nil {
				continue
			}
			s.metrics.UpdateTreeStats(name, stats.Keys, stats.Nodes, stats.Height)
		}
	}
}
