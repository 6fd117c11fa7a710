// controllers/transaction_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/natpethunai/marketplace_backend/models"
	"github.com/natpethunai/marketplace_backend/services"
	"github.com/natpethunai/marketplace_backend/utils"
)

// TransactionController handles transaction-related API endpoints
type TransactionController struct {
	transactions services.TransactionStore
	settlement   *services.SettlementService
	commission   services.CommissionConfig
}

// NewTransactionController creates a new transaction controller
func NewTransactionController(transactions services.TransactionStore, settlement *services.SettlementService, commission services.CommissionConfig) *TransactionController {
	return &TransactionController{
		transactions: transactions,
		settlement:   settlement,
		commission:   commission,
	}
}

// CreateTransaction opens a new exchange in the initiated state. Payment
// and settlement happen later, through the webhook.
func (c *TransactionController) CreateTransaction(ctx echo.Context) error {
	var request models.CreateTransactionRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if err := ctx.Validate(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	txn := models.Transaction{
		BuyerID:    request.BuyerID,
		BuyerName:  request.BuyerName,
		SellerID:   request.SellerID,
		SellerName: request.SellerName,
		Amount:     utils.FormatAmount(utils.AmountFromFloat(request.Amount)),
		Status:     models.StatusInitiated,
	}

	if request.ProductID != "" {
		productID, err := primitive.ObjectIDFromHex(request.ProductID)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid product ID",
			})
		}
		txn.ProductID = &productID
	}

	if err := c.transactions.Create(ctx.Request().Context(), &txn); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create transaction",
		})
	}

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Transaction created",
		Data:    txn,
	})
}

// GetTransaction returns one transaction by id
func (c *TransactionController) GetTransaction(ctx echo.Context) error {
	txn, err := c.transactions.FindByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch transaction",
		})
	}
	if txn == nil {
		return ctx.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Transaction not found",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Transaction retrieved",
		Data:    txn,
	})
}

// ListTransactions returns the settlement worklist, optionally filtered by
// status and seller
func (c *TransactionController) ListTransactions(ctx echo.Context) error {
	filter := models.TransactionFilter{
		Status:   ctx.QueryParam("status"),
		SellerID: ctx.QueryParam("sellerId"),
	}
	if limitStr := ctx.QueryParam("limit"); limitStr != "" {
		if limit, err := strconv.ParseInt(limitStr, 10, 64); err == nil {
			filter.Limit = limit
		}
	}

	transactions, err := c.transactions.List(ctx.Request().Context(), filter)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch transactions",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Transactions retrieved",
		Data:    transactions,
	})
}

// PreviewCommission shows the commission breakdown a settlement of this
// transaction would produce at the seller's current level
func (c *TransactionController) PreviewCommission(ctx echo.Context) error {
	preview, err := c.settlement.PreviewCommission(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			return ctx.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Transaction not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to compute commission preview",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission preview computed",
		Data:    preview,
	})
}

// GetCommissionRates publishes the level-to-rate schedule
func (c *TransactionController) GetCommissionRates(ctx echo.Context) error {
	from := 1
	to := c.commission.MaxLevel
	if fromStr := ctx.QueryParam("from"); fromStr != "" {
		if v, err := strconv.Atoi(fromStr); err == nil {
			from = v
		}
	}
	if toStr := ctx.QueryParam("to"); toStr != "" {
		if v, err := strconv.Atoi(toStr); err == nil {
			to = v
		}
	}

	table, err := c.commission.RateTable(from, to)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid level range",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission rates retrieved",
		Data:    table,
	})
}
