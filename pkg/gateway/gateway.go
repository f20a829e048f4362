// Package gateway exposes the question/answer service over HTTP. It owns the
// router, the middleware chain and the translation of domain errors to
// status codes.
package gateway

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/askstack/askstack/pkg/auth"
	"github.com/askstack/askstack/pkg/config"
	"github.com/askstack/askstack/pkg/logging"
	"github.com/askstack/askstack/pkg/service"
	"github.com/askstack/askstack/pkg/storage"
)

// Gateway is the HTTP front of the service.
type Gateway struct {
	cfg    config.ServerConfig
	logger *logging.ColoredLogger

	qa    *service.QAService
	auth  *auth.Manager
	store storage.Store

	server *http.Server
}

// NewGateway assembles the HTTP gateway.
func NewGateway(cfg config.ServerConfig, logger *logging.ColoredLogger, qa *service.QAService, authMgr *auth.Manager, store storage.Store) *Gateway {
	g := &Gateway{
		cfg:    cfg,
		logger: logger,
		qa:     qa,
		auth:   authMgr,
		store:  store,
	}
	g.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      g.Routes(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}
	return g
}

// Start begins serving and blocks until the listener fails or is shut down.
func (g *Gateway) Start() error {
	g.logger.ComponentInfo(logging.ComponentServer, "http gateway listening",
		zap.String("addr", g.cfg.ListenAddr))
	err := g.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.ComponentInfo(logging.ComponentServer, "http gateway shutting down")
	return g.server.Shutdown(ctx)
}
