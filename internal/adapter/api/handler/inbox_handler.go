package handler

import (
	"github.com/labstack/echo/v4"

	"reqwall/internal/adapter/api/middleware"
	"reqwall/internal/usecase"
	"reqwall/pkg/response"
	"reqwall/pkg/utils"
)

type InboxHandler struct {
	inboxUseCase *usecase.InboxUseCase
}

func NewInboxHandler(inboxUseCase *usecase.InboxUseCase) *InboxHandler {
	return &InboxHandler{
		inboxUseCase: inboxUseCase,
	}
}

func (h *InboxHandler) PostedByMe(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	params := utils.GetPaginationParams(c, 10)

	items, pageInfo, err := h.inboxUseCase.PostedByMe(c.Request().Context(), identity.ParticipantID, params.Page, params.Limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"chats":      items,
		"pagination": pageInfo,
	})
}

func (h *InboxHandler) All(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	params := utils.GetPaginationParams(c, 10)

	items, pageInfo, err := h.inboxUseCase.All(c.Request().Context(), identity.ParticipantID, params.Page, params.Limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"chats":      items,
		"pagination": pageInfo,
	})
}

func (h *InboxHandler) RequirementChats(c echo.Context) error {
	identity := middleware.IdentityFrom(c)

	items, err := h.inboxUseCase.RequirementChats(c.Request().Context(), identity.ParticipantID, c.Param("requirementId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"chats": items,
	})
}

func (h *InboxHandler) UnreadCounts(c echo.Context) error {
	identity := middleware.IdentityFrom(c)

	badge, err := h.inboxUseCase.UnreadCounts(c.Request().Context(), identity.ParticipantID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, badge)
}
