package handler

import (
	"strconv"

	"tappay/internal/adapter/http/dto"
	"tappay/internal/core/ports"
	"tappay/pkg/apperror"
	"tappay/pkg/response"

	"github.com/gin-gonic/gin"
)

// MerchantHandler handles merchant management endpoints.
type MerchantHandler struct {
	merchantSvc ports.MerchantService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(merchantSvc ports.MerchantService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc}
}

// Register handles POST /api/v1/merchants.
func (h *MerchantHandler) Register(c *gin.Context) {
	var req dto.RegisterMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := h.merchantSvc.RegisterMerchant(c.Request.Context(), ports.RegisterMerchantRequest{
		Code:     req.Code,
		Name:     req.Name,
		Category: req.Category,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToMerchantResponse(merchant))
}

// List handles GET /api/v1/merchants.
func (h *MerchantHandler) List(c *gin.Context) {
	merchants, err := h.merchantSvc.ListMerchants(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.MerchantResponse, 0, len(merchants))
	for i := range merchants {
		items = append(items, dto.ToMerchantResponse(&merchants[i]))
	}
	response.OK(c, items)
}

// SetActive handles PUT /api/v1/merchants/:id/active.
func (h *MerchantHandler) SetActive(c *gin.Context) {
	merchantID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	var req dto.SetMerchantActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.merchantSvc.SetMerchantActive(c.Request.Context(), merchantID, *req.Active); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
