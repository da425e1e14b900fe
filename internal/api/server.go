package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"erate-tracker/internal/common/auth"
	"erate-tracker/internal/common/config"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/common/observability"
)

// Routes holds one handler per onboarding endpoint.
type Routes struct {
	Records     http.Handler
	Selection   http.Handler
	Preferences http.Handler
	SendCode    http.Handler
	VerifyCode  http.Handler
	Complete    http.Handler
}

type Dependencies struct {
	Auth          auth.Authenticator
	Observability *observability.Observability
	Logger        logger.Logger
	// Checks run on /ready; any error marks the service not ready.
	Checks map[string]func(ctx context.Context) error
}

type Server struct {
	httpServer *http.Server
	cfg        config.ServerConfig
	deps       Dependencies
	logger     logger.Logger
}

func NewServer(cfg config.ServerConfig, deps Dependencies, routes Routes) *Server {
	if deps.Observability == nil {
		deps.Observability = observability.Noop()
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.routes(routes),
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes(r Routes) http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "GET /api/onboarding/records", r.Records)
	s.handle(mux, "POST /api/onboarding/selection", r.Selection)
	s.handle(mux, "GET /api/onboarding/preferences", r.Preferences)
	s.handle(mux, "PUT /api/onboarding/preferences", r.Preferences)
	s.handle(mux, "POST /api/onboarding/phone/send", r.SendCode)
	s.handle(mux, "POST /api/onboarding/phone/verify", r.VerifyCode)
	s.handle(mux, "POST /api/onboarding/complete", r.Complete)

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /ready", s.ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.Handler) {
	if h == nil {
		return
	}
	mux.Handle(pattern, s.instrument(pattern, s.authenticate(h)))
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("onboarding API listening", map[string]interface{}{"addr": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	timeout := config.GetDuration(s.cfg.ShutdownTimeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
