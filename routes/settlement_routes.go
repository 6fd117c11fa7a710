package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/natpethunai/marketplace_backend/controllers"
	"github.com/natpethunai/marketplace_backend/middleware"
)

// RegisterSettlementRoutes sets up the settlement webhook and the
// developer-facing transaction endpoints
func RegisterSettlementRoutes(e *echo.Echo, settlementController *controllers.SettlementController, transactionController *controllers.TransactionController, paymentController *controllers.PaymentController) {
	// The trigger authenticates with a shared secret, not a user token
	e.POST("/api/settlement/webhook", settlementController.HandleEvent, middleware.TriggerSecret())

	// Developer routes group
	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.RequireUserType("developer", "admin"))

	// Transaction lifecycle and worklist routes
	r.POST("/transactions", transactionController.CreateTransaction)
	r.GET("/transactions", transactionController.ListTransactions)
	r.GET("/transactions/:id", transactionController.GetTransaction)
	r.GET("/transactions/:id/commission-preview", transactionController.PreviewCommission)

	// Commission schedule
	r.GET("/commission/rates", transactionController.GetCommissionRates)

	// Gateway reconciliation routes
	r.GET("/payments/status", paymentController.GetPaymentStatus)
	r.GET("/payments/balance", paymentController.GetBalance)
}
