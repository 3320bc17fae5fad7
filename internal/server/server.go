// Package server exposes the planner over HTTP and WebSocket.
package server

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"time"

	"morphing-planner/internal/config"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/labstack/gommon/log"
)

//go:embed request.json
var requestSchema []byte

const API_PREFIX = "/api/v1"

type Server struct {
	cfg       config.AppConfig
	router    *mux.Router
	logger    *log.Logger
	validator *config.Validator
	upgrader  websocket.Upgrader
}

func New(cfg config.AppConfig, logger *log.Logger) (*Server, error) {
	validator, err := config.NewValidator(requestSchema)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = cfg.NewLogger("server")
	}

	s := &Server{
		cfg:       cfg,
		router:    mux.NewRouter(),
		logger:    logger,
		validator: validator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.router.HandleFunc(API_PREFIX+"/plans", s.handlePlan).Methods(http.MethodPost)
	s.router.HandleFunc(API_PREFIX+"/plans/stream", s.handleStream).Methods(http.MethodGet)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
