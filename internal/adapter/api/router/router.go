package router

import (
	"github.com/labstack/echo/v4"

	"reqwall/internal/adapter/api/handler"
	"reqwall/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	requirementHandler *handler.RequirementHandler,
	chatHandler *handler.ChatHandler,
	inboxHandler *handler.InboxHandler,
	wsHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	SetupRequirementRouter(e, requirementHandler, chatHandler, inboxHandler, authMiddleware)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e, healthHandler)
}
