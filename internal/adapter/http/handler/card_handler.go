package handler

import (
	"strconv"

	"tappay/internal/adapter/http/dto"
	"tappay/internal/core/domain"
	"tappay/internal/core/ports"
	"tappay/pkg/apperror"
	"tappay/pkg/response"

	"github.com/gin-gonic/gin"
)

// CardHandler handles card management endpoints.
type CardHandler struct {
	cardSvc ports.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardSvc ports.CardService) *CardHandler {
	return &CardHandler{cardSvc: cardSvc}
}

// AddCard handles POST /api/v1/cards.
func (h *CardHandler) AddCard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.AddCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	card, err := h.cardSvc.AddCard(c.Request.Context(), ports.AddCardRequest{
		UserID:  userID,
		CardUID: req.CardUID,
		Name:    req.Name,
		Type:    domain.CardType(req.Type),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToCardResponse(card))
}

// ListCards handles GET /api/v1/cards.
func (h *CardHandler) ListCards(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cards, err := h.cardSvc.ListCards(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.CardResponse, 0, len(cards))
	for i := range cards {
		items = append(items, dto.ToCardResponse(&cards[i]))
	}
	response.OK(c, items)
}

// DeactivateCard handles POST /api/v1/cards/:id/deactivate.
func (h *CardHandler) DeactivateCard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation("invalid card id"))
		return
	}

	if err := h.cardSvc.DeactivateCard(c.Request.Context(), cardID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// RemoveCard handles DELETE /api/v1/cards/:id.
func (h *CardHandler) RemoveCard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation("invalid card id"))
		return
	}

	if err := h.cardSvc.RemoveCard(c.Request.Context(), cardID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
