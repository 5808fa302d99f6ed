// Package handlers provides HTTP request handlers for the cat chat server.
package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/catchat/internal/logutil"
	"github.com/oremus-labs/catchat/internal/stream"
)

const defaultServiceName = "Cat Chat SSE Server"

// Options configures handler runtime behavior.
type Options struct {
	ServiceName string
}

type eventStreamer interface {
	Run(ctx context.Context, sink stream.Sink, session stream.Session) error
}

// Handler encapsulates dependencies for HTTP handlers.
type Handler struct {
	streamer eventStreamer
	opts     Options
}

// New creates a new Handler instance.
func New(streamer eventStreamer, opts Options) *Handler {
	if opts.ServiceName == "" {
		opts.ServiceName = defaultServiceName
	}
	return &Handler{
		streamer: streamer,
		opts:     opts,
	}
}

// healthResponse keeps status ahead of message in the encoded body.
type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Message: h.opts.ServiceName})
}

// StreamEvents holds the connection open and streams greeting events until the
// client goes away or the server shuts down.
func (h *Handler) StreamEvents(c *gin.Context) {
	sink, err := stream.NewSink(c.Writer)
	if err != nil {
		log.Printf("Cannot stream to %s: %v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("Access-Control-Allow-Origin", "*")
	c.Status(http.StatusOK)

	session := stream.Session{
		ID:         c.GetString("requestID"),
		RemoteAddr: c.ClientIP(),
	}
	if err := h.streamer.Run(c.Request.Context(), sink, session); err != nil {
		logutil.Warn("event stream ended with error", logutil.Fields{
			"stream_id": session.ID,
			"remote":    session.RemoteAddr,
			"error":     err.Error(),
		})
	}
}

// NotFound answers every unmatched route.
func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
}
