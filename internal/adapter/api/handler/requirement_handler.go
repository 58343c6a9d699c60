package handler

import (
	"github.com/labstack/echo/v4"

	"reqwall/internal/adapter/api/middleware"
	"reqwall/internal/usecase"
	"reqwall/pkg/response"
	"reqwall/pkg/utils"
)

type RequirementHandler struct {
	requirementUseCase *usecase.RequirementUseCase
	chatUseCase        *usecase.ChatUseCase
}

func NewRequirementHandler(requirementUseCase *usecase.RequirementUseCase, chatUseCase *usecase.ChatUseCase) *RequirementHandler {
	return &RequirementHandler{
		requirementUseCase: requirementUseCase,
		chatUseCase:        chatUseCase,
	}
}

type createRequirementRequest struct {
	Title              string  `json:"title" validate:"required"`
	Description        string  `json:"description" validate:"required"`
	Budget             float64 `json:"budget" validate:"omitempty,gte=0"`
	Currency           string  `json:"currency"`
	LocationPreference string  `json:"location_preference"`
}

type submitBidRequest struct {
	RequirementID string `json:"requirementId" validate:"required"`
	Message       string `json:"message" validate:"required"`
}

func (h *RequirementHandler) Create(c echo.Context) error {
	var req createRequirementRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	identity := middleware.IdentityFrom(c)

	requirement, err := h.requirementUseCase.Create(c.Request().Context(), identity.ParticipantID, identity.EventID, usecase.CreateRequirementInput{
		Title:              req.Title,
		Description:        req.Description,
		Budget:             req.Budget,
		Currency:           req.Currency,
		LocationPreference: req.LocationPreference,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, requirement)
}

func (h *RequirementHandler) List(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	params := utils.GetPaginationParams(c, 10)

	listType := c.QueryParam("type")
	if listType == "" {
		listType = "all"
	}

	items, pageInfo, err := h.requirementUseCase.List(
		c.Request().Context(),
		identity.ParticipantID,
		identity.EventID,
		listType,
		c.QueryParam("search"),
		params.Page,
		params.Limit,
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"requirements": items,
		"pagination":   pageInfo,
	})
}

func (h *RequirementHandler) GetByID(c echo.Context) error {
	identity := middleware.IdentityFrom(c)

	detail, err := h.requirementUseCase.GetByID(c.Request().Context(), identity.ParticipantID, c.Param("requirementId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, detail)
}

func (h *RequirementHandler) SubmitBid(c echo.Context) error {
	var req submitBidRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	identity := middleware.IdentityFrom(c)

	result, err := h.chatUseCase.SubmitBid(c.Request().Context(), identity.ParticipantID, usecase.SubmitBidInput{
		RequirementID: req.RequirementID,
		Message:       req.Message,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}
