// Package http provides HTTP server implementation and routing.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	identityHTTP "github.com/sealkeep/sealkeep/internal/identity/http"
)

// RouterConfig holds the handlers and settings used to assemble the router.
type RouterConfig struct {
	CORSEnabled      bool
	CORSAllowOrigins string

	AuthHandler    *identityHTTP.AuthHandler
	PasskeyHandler *identityHTTP.PasskeyHandler
}

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(
	host string,
	port int,
	logger *slog.Logger,
	routerCfg RouterConfig,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(routerCfg.CORSEnabled, routerCfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := router.Group("/v1/auth")
	{
		auth.POST("/email", routerCfg.AuthHandler.SubmitEmailHandler)
		auth.POST("/geo-confirm", routerCfg.AuthHandler.ConfirmGeoHandler)
		auth.POST("/verify-code", routerCfg.AuthHandler.VerifyCodeHandler)
		auth.POST("/resend-code", routerCfg.AuthHandler.ResendCodeHandler)

		auth.POST("/passkey/register/begin", routerCfg.PasskeyHandler.BeginRegistrationHandler)
		auth.POST("/passkey/register/finish", routerCfg.PasskeyHandler.FinishRegistrationHandler)
		auth.POST("/passkey/login/begin", routerCfg.PasskeyHandler.BeginLoginHandler)
		auth.POST("/passkey/login/finish", routerCfg.PasskeyHandler.FinishLoginHandler)

		auth.GET("/prf-params", routerCfg.PasskeyHandler.GetPRFParamsHandler)
		auth.PUT("/prf-params", routerCfg.PasskeyHandler.UpsertPRFParamsHandler)
	}

	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
