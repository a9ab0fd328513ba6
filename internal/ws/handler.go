package ws

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/basket-facade/internal/bridge"
	"github.com/GriffinCanCode/basket-facade/internal/facade"
	"github.com/GriffinCanCode/basket-facade/internal/frame"
	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/basket-facade/internal/providers/repository"
	"github.com/GriffinCanCode/basket-facade/internal/sandbox"
	"github.com/GriffinCanCode/basket-facade/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Options configures the frame websocket handler.
type Options struct {
	Repository *repository.Client
	// PinRef resolves the commit once per basket so every navigation of a
	// session reads the same snapshot.
	PinRef   bool
	Layout   sandbox.Layout
	Sessions *session.Manager
	Logger   *zap.Logger
	Metrics  *monitoring.Metrics
	// CheckOrigin overrides the upgrade origin check. Nil admits
	// same-origin upgrades only.
	CheckOrigin func(r *http.Request) bool
}

// Handler serves one frame runtime per websocket connection.
type Handler struct {
	repo     *repository.Client
	pin      bool
	layout   sandbox.Layout
	sessions *session.Manager
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewManager()
	}
	return &Handler{
		repo:     opts.Repository,
		pin:      opts.PinRef,
		layout:   opts.Layout,
		sessions: sessions,
		logger:   logger,
		metrics:  opts.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     opts.CheckOrigin,
		},
	}
}

// AllowOrigins returns an upgrade origin check that admits same-origin
// requests, requests without an Origin header, and the listed origins.
// Browsers attach cookies to cross-site upgrades and the frame forwards
// them to the repository, so "*" must be listed explicitly to open it up.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(strings.TrimSuffix(o, "/"))] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if allowed["*"] || allowed[strings.ToLower(origin)] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// Sessions exposes the registry of live connections.
func (h *Handler) Sessions() *session.Manager { return h.sessions }

// HandleConnection upgrades the request and runs a frame runtime until the
// peer disconnects. API calls made by the frame carry the upgrade request's
// cookies.
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn := bridge.NewWebSocketConn(ws)
	defer conn.Close()

	client := h.repo.WithCookies(c.Request.Cookies())
	readers := func(owner, basket string) repository.Reader {
		if h.pin {
			return repository.NewPinned(client, owner, basket)
		}
		return client
	}

	rt := frame.New(bridge.Instrument(conn, h.metrics), frame.Options{
		Readers: readers,
		Layout:  h.layout,
		Logger:  h.logger,
		Metrics: h.metrics,
		Facade:  facade.FactoryName,
	})

	sid := h.sessions.Register(c.Request.RemoteAddr, rt)
	defer h.sessions.Remove(sid)

	logger := h.logger.With(zap.String("session", sid.String()))
	logger.Info("frame session started", zap.String("remote", c.Request.RemoteAddr))

	if err := rt.Run(c.Request.Context()); err != nil {
		logger.Warn("frame session ended with error", zap.Error(err))
		return
	}
	logger.Info("frame session ended")
}
