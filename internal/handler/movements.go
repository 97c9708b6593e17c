package handler

import (
	"net/http"

	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/service"

	"github.com/gin-gonic/gin"
)

type MovementsHandler struct{ svc service.MovementService }

func NewMovementsHandler(svc service.MovementService) *MovementsHandler {
	return &MovementsHandler{svc: svc}
}

// Register godoc
// @Summary      Register a manual stock movement
// @Description  Entry adds stock, Exit removes it. An Exit beyond the available stock is rejected with 409.
// @Tags         movements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegisterMovementRequest true "Movement"
// @Success      201 {object} dto.MovementResponse
// @Failure      409 {object} apierror.StockError
// @Router       /v1/movements [post]
func (h *MovementsHandler) Register(c *gin.Context) {
	var req dto.RegisterMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
