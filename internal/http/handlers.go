package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/resilience"
	httpclient "github.com/GriffinCanCode/basket-facade/internal/providers/http/client"
	"github.com/GriffinCanCode/basket-facade/internal/session"
	"github.com/GriffinCanCode/basket-facade/internal/shared/id"
	"github.com/gin-gonic/gin"
)

// Version is reported by the root endpoint.
const Version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions  *session.Manager
	api       *httpclient.Client
	apiURL    string
	startedAt time.Time
}

// NewHandlers creates a new handler set. api may be nil when the server
// runs without a repository client.
func NewHandlers(sessions *session.Manager, api *httpclient.Client, apiURL string) *Handlers {
	return &Handlers{
		sessions:  sessions,
		api:       api,
		apiURL:    apiURL,
		startedAt: time.Now(),
	}
}

// Root reports the service identity
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Basket Facade",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	repo := gin.H{"url": h.apiURL}
	status := "healthy"
	if h.api != nil {
		state := h.api.BreakerState()
		repo["breaker"] = state.String()
		if state == resilience.StateOpen {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"uptime":     time.Since(h.startedAt).Round(time.Second).String(),
		"sessions":   h.sessions.Count(),
		"repository": repo,
	})
}

// ListSessions lists live frame sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns one live frame session
func (h *Handlers) GetSession(c *gin.Context) {
	sid, err := id.ParseSessionID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, ok := h.sessions.Get(sid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}
