package controller

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/ugcfy-backend/internal/middleware"
	ws "github.com/ikkim/ugcfy-backend/internal/websocket"
)

// RealtimeController streams moderation events to the embedded admin
type RealtimeController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewRealtimeController accepts upgrades from allowedOrigins; "*" allows any origin
func NewRealtimeController(hub *ws.Hub, allowedOrigins []string) *RealtimeController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &RealtimeController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed["*"] || allowed[origin] {
					return true
				}
				// same host as the app URL
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

// Connect upgrades the session-authenticated request to a websocket
// GET /api/ws?token=
func (ctrl *RealtimeController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	shop, ok := requireShop(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err, map[string]interface{}{
			"shop": shop,
		})
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, shop)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"shop": shop,
	})
}
