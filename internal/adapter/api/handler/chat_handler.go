package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"reqwall/internal/adapter/api/middleware"
	"reqwall/internal/usecase"
	"reqwall/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type sendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	identity := middleware.IdentityFrom(c)

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), identity.ParticipantID, c.Param("chatId"), req.Message)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	identity := middleware.IdentityFrom(c)

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	page, err := h.chatUseCase.FetchMessages(
		c.Request().Context(),
		identity.ParticipantID,
		c.Param("chatId"),
		c.QueryParam("cursor"),
		limit,
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"messages": page.Messages,
		"pagination": map[string]interface{}{
			"hasNextPage": page.HasNextPage,
			"nextCursor":  page.NextCursor,
			"limit":       page.Limit,
		},
	})
}

func (h *ChatHandler) MarkAsRead(c echo.Context) error {
	identity := middleware.IdentityFrom(c)

	if err := h.chatUseCase.MarkAsRead(c.Request().Context(), identity.ParticipantID, c.Param("chatId")); err != nil {
		return response.Error(c, err)
	}

	return response.SuccessMessage(c, "Messages marked as read")
}
