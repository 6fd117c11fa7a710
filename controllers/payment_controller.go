// controllers/payment_controller.go
package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/natpethunai/marketplace_backend/models"
	"github.com/natpethunai/marketplace_backend/services"
)

// PaymentController exposes gateway reconciliation endpoints for developers
type PaymentController struct {
	gateway *services.GatewayService
}

// NewPaymentController creates a new payment controller
func NewPaymentController(gateway *services.GatewayService) *PaymentController {
	return &PaymentController{gateway: gateway}
}

// GetPaymentStatus looks up a payment at the gateway by UTR reference
func (c *PaymentController) GetPaymentStatus(ctx echo.Context) error {
	utrID := ctx.QueryParam("utr")
	if utrID == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "utr query parameter is required",
		})
	}

	if !c.gateway.Configured() {
		return ctx.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Payment gateway is not configured",
		})
	}

	status, err := c.gateway.GetPaymentStatus(utrID)
	if err != nil {
		return ctx.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to fetch payment status from gateway",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment status retrieved",
		Data:    status,
	})
}

// GetBalance returns the developer account balance held at the gateway
func (c *PaymentController) GetBalance(ctx echo.Context) error {
	if !c.gateway.Configured() {
		return ctx.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Payment gateway is not configured",
		})
	}

	balance, err := c.gateway.GetBalance()
	if err != nil {
		return ctx.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to fetch balance from gateway",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Balance retrieved",
		Data:    map[string]float64{"balance": balance},
	})
}
