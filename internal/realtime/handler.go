package realtime

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/service"
)

// Handler upgrades HTTP requests to websocket clients of the hub.
type Handler struct {
	hub      *Hub
	handlers *Handlers
	auth     *service.AuthService
	origins  []string
	logger   *zap.Logger
}

func NewHandler(hub *Hub, handlers *Handlers, auth *service.AuthService, origins []string, logger *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		handlers: handlers,
		auth:     auth,
		origins:  origins,
		logger:   logger,
	}
}

// HandleWebSocket serves /ws. The one-time password, when enabled, is read
// from the otp query parameter or the X-OTP header.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	if h.auth != nil && !h.auth.ValidateToken(service.TokenFrom(c.Request)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	opts := &websocket.AcceptOptions{}
	if patterns := originPatterns(h.origins); len(patterns) == 0 {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = patterns
	}

	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h.hub, conn, c.ClientIP())
	h.hub.Register(client)

	go client.writePump()
	go client.heartbeat()

	h.handlers.OnConnect(client.ctx, client)
	client.readPump(h.handlers)
}

// originPatterns converts allowed origins such as "https://app.example.com"
// to the host patterns the websocket library matches. A "*" entry or an
// empty list accepts any origin.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return nil
		}
		if strings.Contains(origin, "://") {
			if u, err := url.Parse(origin); err == nil {
				origin = u.Host
			}
		}
		if origin != "" {
			patterns = append(patterns, origin)
		}
	}
	return patterns
}
