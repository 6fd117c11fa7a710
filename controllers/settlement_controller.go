// controllers/settlement_controller.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/natpethunai/marketplace_backend/models"
	"github.com/natpethunai/marketplace_backend/services"
)

// SettlementController receives the payment-confirmation trigger's events
// and hands them to the settlement engine.
type SettlementController struct {
	service *services.SettlementService
}

// NewSettlementController creates a new settlement controller
func NewSettlementController(service *services.SettlementService) *SettlementController {
	return &SettlementController{service: service}
}

// HandleEvent processes one delivered settlement event. The response
// contract matters to the trigger: a non-2xx answer causes redelivery, so
// only transaction-persistence failures and malformed events are allowed
// to produce one.
func (c *SettlementController) HandleEvent(ctx echo.Context) error {
	var event models.SettlementEvent
	if err := ctx.Bind(&event); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.SettlementAck{
			Success: false,
			Error:   "invalid request body",
		})
	}
	if err := ctx.Validate(&event); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.SettlementAck{
			Success: false,
			Error:   err.Error(),
		})
	}

	ack, err := c.service.Settle(ctx.Request().Context(), event)
	if err != nil {
		if errors.Is(err, services.ErrMissingAmount) || errors.Is(err, services.ErrNegativeAmount) || errors.Is(err, services.ErrInvalidLevel) {
			return ctx.JSON(http.StatusBadRequest, ack)
		}
		return ctx.JSON(http.StatusInternalServerError, ack)
	}

	return ctx.JSON(http.StatusOK, ack)
}
