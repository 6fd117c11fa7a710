// services/settlement.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/natpethunai/marketplace_backend/models"
	"github.com/natpethunai/marketplace_backend/utils"
)

// ErrMissingAmount is returned when a payment-confirmation event arrives
// without an amount.
var ErrMissingAmount = errors.New("amount is required for payment confirmation events")

// ErrNegativeAmount is returned when a payment-confirmation event carries
// an amount below zero. Nothing is persisted for such events.
var ErrNegativeAmount = errors.New("amount must not be negative")

// ErrTransactionNotFound is returned by read paths when no transaction
// matches the given id.
var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionStore is the persistence interface for transactions. The
// conditional methods only apply their write when the stored status is one
// of the expected values, and report whether the write happened; that
// precondition is what keeps settlement idempotent under redelivery.
type TransactionStore interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	ApplySettlement(ctx context.Context, id string, expectedStatuses []string, fields SettlementFields) (bool, error)
	UpdateStatus(ctx context.Context, id string, expectedStatuses []string, newStatus string) (bool, error)
}

// ProductStore reads and updates marketplace listings.
type ProductStore interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}

// ProfileStore looks up seller profiles. FindBySellerID returns (nil, nil)
// when no profile exists for the seller.
type ProfileStore interface {
	FindBySellerID(ctx context.Context, sellerID string) (*models.SellerProfile, error)
}

// IdempotencyLocker takes a short-lived lock per delivered event so
// duplicate deliveries can be dropped before any work is done. Best-effort:
// the conditional transaction write remains the authoritative guard.
type IdempotencyLocker interface {
	Acquire(ctx context.Context, key string) (bool, error)
}

// SettlementFields is the set of fields written by the commission
// transition. UtrID is only written when non-empty; an existing reference
// is never cleared.
type SettlementFields struct {
	Status           string
	CommissionAmount string
	NetSellerAmount  string
	UtrID            string
}

// LevelResolution reports how a seller level was obtained. Defaulted is
// true when the profile was missing, unusable, or the lookup degraded;
// Reason says which.
type LevelResolution struct {
	Level     int
	Defaulted bool
	Reason    string
}

// CommissionPreview is the dry-run settlement breakdown for a transaction.
type CommissionPreview struct {
	TransactionID    string `json:"transactionId"`
	SellerLevel      int    `json:"sellerLevel"`
	LevelDefaulted   bool   `json:"levelDefaulted"`
	Rate             string `json:"rate"`
	Amount           string `json:"amount"`
	CommissionAmount string `json:"commissionAmount"`
	NetSellerAmount  string `json:"netSellerAmount"`
}

// SettlementService is the commission and settlement engine. It owns the
// transition rules of the transaction lifecycle; everything it touches
// beyond the transaction itself (profiles, products) is best-effort.
type SettlementService struct {
	config       CommissionConfig
	transactions TransactionStore
	products     ProductStore
	profiles     ProfileStore
	locker       IdempotencyLocker
	breaker      *gobreaker.CircuitBreaker
}

// NewSettlementService creates the settlement engine. locker may be nil
// when Redis is unavailable; profile lookups are wrapped in a circuit
// breaker so a degraded profile store cannot slow settlement down.
func NewSettlementService(config CommissionConfig, transactions TransactionStore, products ProductStore, profiles ProfileStore, locker IdempotencyLocker) *SettlementService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "seller-profile-lookup",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s changed state: %s -> %s", name, from, to)
		},
	})

	return &SettlementService{
		config:       config,
		transactions: transactions,
		products:     products,
		profiles:     profiles,
		locker:       locker,
		breaker:      breaker,
	}
}

// ResolveSellerLevel finds the seller's level, defaulting to 1 whenever the
// profile is missing, carries no usable level, or the lookup fails or is
// short-circuited. Settlement must never block on the profile store.
func (s *SettlementService) ResolveSellerLevel(ctx context.Context, sellerID string) LevelResolution {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return s.profiles.FindBySellerID(lookupCtx, sellerID)
	})
	if err != nil {
		log.Printf("Warning: seller level lookup for %s degraded, defaulting to level 1: %v", sellerID, err)
		return LevelResolution{Level: 1, Defaulted: true, Reason: fmt.Sprintf("profile lookup failed: %v", err)}
	}

	profile, _ := result.(*models.SellerProfile)
	if profile == nil {
		return LevelResolution{Level: 1, Defaulted: true, Reason: "profile not found"}
	}
	if profile.Level < 1 {
		return LevelResolution{Level: 1, Defaulted: true, Reason: "profile has no usable level"}
	}

	return LevelResolution{Level: profile.Level}
}

// Settle processes one delivered settlement event and returns the
// acknowledgement for the trigger. Only a failed transaction write returns
// a non-nil error; every other outcome, including no-ops and swallowed
// product failures, acknowledges success so the trigger does not redeliver.
func (s *SettlementService) Settle(ctx context.Context, event models.SettlementEvent) (models.SettlementAck, error) {
	eventID := uuid.NewString()
	log.Printf("[%s] settlement event: txn=%s status=%s seller=%s", eventID, event.TransactionID, event.Status, event.SellerID)

	switch event.Status {
	case models.StatusPaymentConfirmed:
		return s.settlePaymentConfirmed(ctx, eventID, event)

	case models.StatusSellerConfirmedDelivery:
		applied, err := s.transactions.UpdateStatus(ctx, event.TransactionID,
			[]string{models.StatusCommissionDeducted}, models.StatusPaidToSeller)
		if err != nil {
			return models.SettlementAck{Success: false, Error: "failed to update transaction status"},
				fmt.Errorf("updating transaction %s to %s: %w", event.TransactionID, models.StatusPaidToSeller, err)
		}
		if !applied {
			log.Printf("[%s] delivery confirmation for txn %s skipped: not in %s", eventID, event.TransactionID, models.StatusCommissionDeducted)
			return models.SettlementAck{Success: true, Message: "transaction not awaiting payout, no action taken"}, nil
		}
		return models.SettlementAck{Success: true, Message: "seller payout released"}, nil

	case models.StatusInitiated:
		return models.SettlementAck{Success: true, Message: "transaction initiated, no settlement action"}, nil

	default:
		log.Printf("[%s] no settlement rule for status %q, acknowledging", eventID, event.Status)
		return models.SettlementAck{Success: true, Message: fmt.Sprintf("no action for status %q", event.Status)}, nil
	}
}

func (s *SettlementService) settlePaymentConfirmed(ctx context.Context, eventID string, event models.SettlementEvent) (models.SettlementAck, error) {
	if event.Amount == nil {
		return models.SettlementAck{Success: false, Error: ErrMissingAmount.Error()}, ErrMissingAmount
	}
	if *event.Amount < 0 {
		return models.SettlementAck{Success: false, Error: ErrNegativeAmount.Error()}, ErrNegativeAmount
	}
	amount := utils.AmountFromFloat(*event.Amount)

	if s.locker != nil {
		key := fmt.Sprintf("settle:%s:%s", event.TransactionID, event.Status)
		acquired, err := s.locker.Acquire(ctx, key)
		if err != nil {
			// Lock is an optimization only; the conditional write below
			// still prevents double settlement.
			log.Printf("[%s] idempotency lock unavailable: %v", eventID, err)
		} else if !acquired {
			log.Printf("[%s] duplicate delivery for txn %s dropped by idempotency lock", eventID, event.TransactionID)
			return models.SettlementAck{Success: true, Message: "duplicate delivery ignored"}, nil
		}
	}

	resolution := s.ResolveSellerLevel(ctx, event.SellerID)
	if resolution.Defaulted {
		log.Printf("[%s] seller %s level defaulted to 1 (%s)", eventID, event.SellerID, resolution.Reason)
	}

	commission, netSeller, err := s.config.Split(amount, resolution.Level)
	if err != nil {
		return models.SettlementAck{Success: false, Error: err.Error()},
			fmt.Errorf("computing commission for txn %s: %w", event.TransactionID, err)
	}

	fields := SettlementFields{
		Status:           models.StatusCommissionDeducted,
		CommissionAmount: utils.FormatAmount(commission),
		NetSellerAmount:  utils.FormatAmount(netSeller),
		UtrID:            event.UtrID,
	}
	applied, err := s.transactions.ApplySettlement(ctx, event.TransactionID,
		[]string{models.StatusInitiated, models.StatusPaymentConfirmed}, fields)
	if err != nil {
		return models.SettlementAck{Success: false, Error: "failed to persist settlement"},
			fmt.Errorf("persisting settlement for txn %s: %w", event.TransactionID, err)
	}
	if !applied {
		log.Printf("[%s] txn %s already settled, skipping commission deduction", eventID, event.TransactionID)
		return models.SettlementAck{Success: true, Message: "transaction already settled, no action taken"}, nil
	}

	log.Printf("[%s] commission deducted for txn %s: amount=%s level=%d commission=%s net=%s",
		eventID, event.TransactionID, utils.FormatAmount(amount), resolution.Level, fields.CommissionAmount, fields.NetSellerAmount)

	if event.ProductID != "" {
		s.markProductExchanged(ctx, eventID, event.ProductID)
	}

	return models.SettlementAck{Success: true, Message: "commission deducted"}, nil
}

// markProductExchanged flips the product status after a settled sale or
// rental. Runs after the transaction write has committed; failures are
// logged and swallowed so they can never undo or fail the settlement.
func (s *SettlementService) markProductExchanged(ctx context.Context, eventID, productID string) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		log.Printf("[%s] Warning: failed to fetch product %s after settlement: %v", eventID, productID, err)
		return
	}
	if product == nil {
		log.Printf("[%s] Warning: product %s not found after settlement", eventID, productID)
		return
	}

	var status string
	switch product.Type {
	case models.ProductTypeSell:
		status = models.ProductSold
	case models.ProductTypeRent:
		status = models.ProductRented
	default:
		return
	}

	if err := s.products.UpdateStatus(ctx, productID, status); err != nil {
		log.Printf("[%s] Warning: failed to mark product %s as %s: %v", eventID, productID, status, err)
		return
	}
	log.Printf("[%s] product %s marked %s", eventID, productID, status)
}

// PreviewCommission computes the settlement breakdown for a transaction
// using the seller's current level, without writing anything.
func (s *SettlementService) PreviewCommission(ctx context.Context, transactionID string) (*CommissionPreview, error) {
	txn, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("fetching transaction %s: %w", transactionID, err)
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}

	amount, err := utils.ParseAmount(txn.Amount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, err)
	}

	resolution := s.ResolveSellerLevel(ctx, txn.SellerID)
	rate, err := s.config.Rate(resolution.Level)
	if err != nil {
		return nil, err
	}
	commission, netSeller, err := s.config.Split(amount, resolution.Level)
	if err != nil {
		return nil, err
	}

	return &CommissionPreview{
		TransactionID:    transactionID,
		SellerLevel:      resolution.Level,
		LevelDefaulted:   resolution.Defaulted,
		Rate:             rate.String(),
		Amount:           utils.FormatAmount(amount),
		CommissionAmount: utils.FormatAmount(commission),
		NetSellerAmount:  utils.FormatAmount(netSeller),
	}, nil
}
