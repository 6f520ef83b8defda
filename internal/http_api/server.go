package http_api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rss3-network/gateway-dashboard/internal/billing"
	"github.com/rss3-network/gateway-dashboard/internal/models"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 10 * time.Second
)

// HTTPServer is the HTTP server struct that will serve the API
type HTTPServer struct {
	// logger is the logger instance
	logger *logger.Logger

	// router is the HTTP router
	router *gin.Engine
	// port is the port on which the server will listen
	port int

	// server is the underlying HTTP server
	server *http.Server

	gateway     models.GatewayService
	notificator models.NotificationService
	// panel is nil when no contracts are configured
	panel *billing.Panel

	// one submit per modal at a time
	depositMu  sync.Mutex
	withdrawMu sync.Mutex
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, X-Request-ID, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// NewHTTPServer creates a new HTTP server instance. panel may be nil, in
// which case the billing routes answer 503.
func NewHTTPServer(gateway models.GatewayService, panel *billing.Panel, notificator models.NotificationService, port int, logger *logger.Logger) *HTTPServer {
	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware(), loggerMiddleware(logger), corsMiddleware())

	server := &HTTPServer{
		router:      router,
		port:        port,
		gateway:     gateway,
		notificator: notificator,
		panel:       panel,
		logger:      logger.Named("http_api"),
	}

	server.server = &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%v", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Define routes
	server.routes()

	return server
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it is shut down.
func (s *HTTPServer) Start() error {
	s.logger.Info("Starting HTTP server", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start the HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server shut down successfully")
	return nil
}
