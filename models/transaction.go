// models/transaction.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction statuses. The settlement chain is strictly ordered:
// initiated -> payment_confirmed_to_developer -> commission_deducted -> paid_to_seller.
// StatusFailed is a terminal state reachable from any non-terminal state.
const (
	StatusInitiated               = "initiated"
	StatusPaymentConfirmed        = "payment_confirmed_to_developer"
	StatusCommissionDeducted      = "commission_deducted"
	StatusSellerConfirmedDelivery = "seller_confirmed_delivery"
	StatusPaidToSeller            = "paid_to_seller"
	StatusFailed                  = "failed"
)

// Transaction model. Monetary fields are stored as canonical two-decimal
// strings so amounts round-trip through MongoDB without float drift.
// CommissionAmount and NetSellerAmount stay nil until settlement computes
// them; whenever both are set, commission + net == amount exactly.
type Transaction struct {
	ID               primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	BuyerID          string              `json:"buyerId" bson:"buyerId"`
	BuyerName        string              `json:"buyerName,omitempty" bson:"buyerName,omitempty"`
	SellerID         string              `json:"sellerId" bson:"sellerId"`
	SellerName       string              `json:"sellerName,omitempty" bson:"sellerName,omitempty"`
	ProductID        *primitive.ObjectID `json:"productId,omitempty" bson:"productId,omitempty"`
	Amount           string              `json:"amount" bson:"amount"`
	Status           string              `json:"status" bson:"status"`
	CommissionAmount *string             `json:"commissionAmount,omitempty" bson:"commissionAmount,omitempty"`
	NetSellerAmount  *string             `json:"netSellerAmount,omitempty" bson:"netSellerAmount,omitempty"`
	UtrID            string              `json:"utrId,omitempty" bson:"utrId,omitempty"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// SettlementEvent is the payload delivered by the payment-confirmation
// trigger. Status drives the settlement state machine; Amount is required
// only when status is payment_confirmed_to_developer.
type SettlementEvent struct {
	TransactionID string   `json:"$id" validate:"required"`
	Status        string   `json:"status" validate:"required"`
	SellerID      string   `json:"sellerId" validate:"required"`
	Amount        *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	ProductID     string   `json:"productId,omitempty"`
	UtrID         string   `json:"utrId,omitempty"`
}

// SettlementAck is the webhook response body.
type SettlementAck struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreateTransactionRequest is the buyer-initiated transaction creation body.
type CreateTransactionRequest struct {
	BuyerID    string  `json:"buyerId" validate:"required"`
	BuyerName  string  `json:"buyerName"`
	SellerID   string  `json:"sellerId" validate:"required"`
	SellerName string  `json:"sellerName"`
	ProductID  string  `json:"productId,omitempty"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
}

// TransactionFilter narrows the developer worklist query.
type TransactionFilter struct {
	Status   string
	SellerID string
	Limit    int64
}
