package main

import (
	"fmt"
	"net/http"

	"github.com/mcdev12/defensetimer/go/internal/session/rpc"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// Register the command service
	sessionPath, sessionHandler := rpc.NewSessionServiceHandler(services.Session)
	mux.Handle(sessionPath, sessionHandler)

	// Display routes (WebSocket and REST)
	services.Gateway.RegisterRoutes(mux)

	setupHealthCheck(mux, services)

	// Wrap with CORS
	handler := c.Handler(mux)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", getEnv("PORT", "8080")),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func setupHealthCheck(mux *http.ServeMux, services *Services) {
	checker := services.healthChecker()
	mux.Handle("/health", checker)
	mux.Handle("/metrics", NewPrometheusExporter(checker))
}
