package controller

import (
	"log/slog"
	"net/http"

	ws "github.com/gorilla/websocket"

	"NovaTalkAPI/internal/config"
	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/middleware"
	"NovaTalkAPI/internal/model"
	"NovaTalkAPI/internal/websocket"
)

type WebSocketController struct {
	hub     *websocket.Hub
	limiter *config.RateLimiter
}

func NewWebSocketController(hub *websocket.Hub, limiter *config.RateLimiter) *WebSocketController {
	return &WebSocketController{
		hub:     hub,
		limiter: limiter,
	}
}

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the authenticated request to a websocket session
// and starts its pumps. Upgrades are throttled per remote IP.
func (c *WebSocketController) ServeWS(w http.ResponseWriter, r *http.Request) {
	userContext, ok := r.Context().Value(middleware.UserContextKey).(*model.UserDTO)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	if c.limiter != nil && !c.limiter.Allow(r.RemoteAddr) {
		helper.WriteError(w, helper.NewTooManyRequestsError("Too many connection attempts. Please wait."))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err, "userID", userContext.ID)
		return
	}

	client := websocket.NewClient(c.hub, conn, userContext)
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
