// Package main is the entry point for the cat chat SSE server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/oremus-labs/catchat/config"
	"github.com/oremus-labs/catchat/internal/api"
	"github.com/oremus-labs/catchat/internal/catapi"
	"github.com/oremus-labs/catchat/internal/handlers"
	"github.com/oremus-labs/catchat/internal/lifecycle"
	"github.com/oremus-labs/catchat/internal/redisx"
	"github.com/oremus-labs/catchat/internal/stream"
)

const version = "0.1.0"

func main() {
	// Initialize logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting Cat Chat SSE Server v%s", version)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Load configuration
	cfg := config.Load()
	log.Printf("Configuration loaded - Addr: %s, Cat API: %s, Interval: %d-%d x %s",
		cfg.Addr(), cfg.CatAPIURL, cfg.MinInterval, cfg.MaxInterval, cfg.IntervalUnit)

	redisClient, err := redisx.NewClient(rootCtx, redisx.Config{
		Addr:        cfg.RedisAddr,
		Username:    cfg.RedisUsername,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		TLSEnabled:  cfg.RedisTLSEnabled,
		TLSInsecure: cfg.RedisTLSInsecure,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher := lifecycle.NewPublisher(lifecycle.Options{
		Client:  redisClient,
		Logger:  log.Default(),
		Channel: cfg.LifecycleChannel,
	})
	if redisClient != nil {
		log.Printf("Publishing lifecycle notices to Redis channel %s", publisher.Channel())
	} else {
		log.Println("Lifecycle notices disabled (REDIS_ADDR not set)")
	}

	images := catapi.New(
		catapi.WithSearchURL(cfg.CatAPIURL),
		catapi.WithFallbackURL(cfg.FallbackImageURL),
		catapi.WithAPIKey(cfg.CatAPIKey),
		catapi.WithTimeout(cfg.CatAPITimeout),
	)
	log.Printf("Fallback image: %s", images.FallbackURL())

	streamer := stream.New(stream.Options{
		Images:   images,
		Delay:    stream.RandomDelay(cfg.MinInterval, cfg.MaxInterval, cfg.IntervalUnit),
		Observer: publisher,
	})

	h := handlers.New(streamer, handlers.Options{})
	server := api.NewServer(h, api.Options{MetricsEnabled: cfg.MetricsEnabled})
	srv := server.HTTPServer(rootCtx, cfg.Addr())

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Cancelling the root context ends every open event stream.
	rootCancel()
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	// Flush stream.closed notices before the deferred Redis close.
	if err := publisher.Close(ctx); err != nil {
		log.Printf("Lifecycle notices lost: %v", err)
	}

	log.Println("Server stopped")
}
