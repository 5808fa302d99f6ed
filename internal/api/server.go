package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/catchat/internal/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the HTTP server wiring.
type Options struct {
	MetricsEnabled bool
}

// Server wraps the Gin engine and associated configuration.
type Server struct {
	engine *gin.Engine
}

// NewServer constructs a Server with all HTTP routes configured.
func NewServer(handler *handlers.Handler, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestIDMiddleware(), corsMiddleware(), metricsMiddleware(), requestLogger())

	engine.GET("/", handler.Health)
	engine.GET("/events", handler.StreamEvents)
	if opts.MetricsEnabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	engine.NoRoute(handler.NotFound)

	return &Server{engine: engine}
}

// Engine exposes the underlying Gin engine for advanced use (testing, etc.).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// HTTPServer builds the http.Server for addr. Every request context derives
// from base, so cancelling base ends all open event streams.
func (s *Server) HTTPServer(base context.Context, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: /events responses are unbounded.
		BaseContext: func(net.Listener) context.Context {
			return base
		},
	}
}
