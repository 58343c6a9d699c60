package router

import (
	"github.com/labstack/echo/v4"

	"reqwall/internal/adapter/api/handler"
	"reqwall/internal/adapter/api/middleware"
)

// SetupRequirementRouter wires the requirement wall, bidding and chat
// endpoints. Everything under /v1/requirements needs an authenticated
// event participant.
func SetupRequirementRouter(
	e *echo.Echo,
	requirementHandler *handler.RequirementHandler,
	chatHandler *handler.ChatHandler,
	inboxHandler *handler.InboxHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	group := e.Group("/v1/requirements")
	group.Use(authMiddleware.Authenticate)

	// Requirement wall
	group.POST("", requirementHandler.Create)
	group.GET("", requirementHandler.List)

	// Bidding
	group.POST("/submit-bid", requirementHandler.SubmitBid)

	// Inbox projections; registered before /:id so they are not swallowed
	// by the param route
	group.GET("/inbox/posted-by-me", inboxHandler.PostedByMe)
	group.GET("/inbox/all", inboxHandler.All)
	group.GET("/inbox/unread-counts", inboxHandler.UnreadCounts)

	// Chat messaging
	group.POST("/chats/:chatId/messages", chatHandler.SendMessage)
	group.GET("/chats/:chatId/messages", chatHandler.GetMessages)
	group.PATCH("/chats/:chatId/mark-read", chatHandler.MarkAsRead)

	// Requirement detail and its chat list
	group.GET("/:requirementId", requirementHandler.GetByID)
	group.GET("/:requirementId/chats", inboxHandler.RequirementChats)
}
