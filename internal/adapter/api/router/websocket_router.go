package router

import (
	"github.com/labstack/echo/v4"

	"reqwall/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers the real-time gateway endpoint. The
// handler authenticates the handshake itself so the connection can be
// rejected before the upgrade.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws/requirements", wsHandler.HandleWebSocket)
}
