package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/basket-facade/internal/http"
	"github.com/GriffinCanCode/basket-facade/internal/api/middleware"
	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/config"
	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/logging"
	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/monitoring"
	httpclient "github.com/GriffinCanCode/basket-facade/internal/providers/http/client"
	"github.com/GriffinCanCode/basket-facade/internal/providers/repository"
	"github.com/GriffinCanCode/basket-facade/internal/sandbox"
	"github.com/GriffinCanCode/basket-facade/internal/session"
	"github.com/GriffinCanCode/basket-facade/internal/ws"
)

// WebSocketPath is the bridge endpoint. It bypasses response compression.
const WebSocketPath = "/facade/ws"

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	handler  http.Handler
	sessions *session.Manager
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer assembles the frame server from cfg.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Repository.BaseURL == "" {
		return nil, errors.New("server: repository base URL is required")
	}

	logger.Info("Initializing facade server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("repository", cfg.Repository.BaseURL),
		zap.String("commit_ref", cfg.Repository.CommitRef),
		zap.Bool("pin_ref", cfg.Repository.PinRef),
	)

	metrics := monitoring.NewMetrics()

	api := httpclient.NewClient(httpclient.Options{
		BaseURL:   cfg.Repository.BaseURL,
		Timeout:   cfg.Repository.Timeout,
		RateLimit: cfg.Repository.RateLimit,
	})
	repo := repository.NewClient(api, cfg.Repository.CommitRef, logger.Component("repository"), metrics)
	sessions := session.NewManager()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSForOrigins(cfg.Server.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limit := middleware.DefaultRateLimitConfig()
		limit.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limit.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limit))
	}

	handlers := apihttp.NewHandlers(sessions, api, cfg.Repository.BaseURL)
	wsHandler := ws.NewHandler(ws.Options{
		Repository:  repo,
		PinRef:      cfg.Repository.PinRef,
		Layout:      sandbox.DefaultLayout().WithLineHeight(cfg.Facade.LineHeight),
		Sessions:    sessions,
		Logger:      logger.Component("frame"),
		Metrics:     metrics,
		CheckOrigin: ws.AllowOrigins(cfg.Server.WebSocketOrigins),
	})

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	facade := router.Group("/facade")
	facade.GET("/ws", wsHandler.HandleConnection)
	if cfg.Server.ExposeSessions {
		facade.GET("/sessions", handlers.ListSessions)
		facade.GET("/sessions/:id", handlers.GetSession)
	}

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		handler:  compress(router),
		sessions: sessions,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// compress gzips every response except the websocket upgrade, which must
// reach the router with an unwrapped ResponseWriter to be hijacked.
func compress(router http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == WebSocketPath {
			router.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Handler returns the root handler, including compression.
func (s *Server) Handler() http.Handler { return s.handler }

// Sessions exposes the live session registry.
func (s *Server) Sessions() *session.Manager { return s.sessions }

// Run serves until ctx is cancelled, then shuts down gracefully. Open
// websocket sessions are ended through their request context.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.config.Server.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Handler:     s.handler,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...", zap.Int("sessions", s.sessions.Count()))
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.Default().Server.ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	cancelBase()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	_ = s.logger.Sync()
	return nil
}
