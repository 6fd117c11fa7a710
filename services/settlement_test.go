package services

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/natpethunai/marketplace_backend/models"
)

func newObjectID() primitive.ObjectID {
	return primitive.NewObjectID()
}

type stubTransactionStore struct {
	txns      map[string]*models.Transaction
	createErr error
	findErr   error
	applyErr  error
	updateErr error
}

func newStubTransactionStore(txns ...*models.Transaction) *stubTransactionStore {
	s := &stubTransactionStore{txns: make(map[string]*models.Transaction)}
	for _, txn := range txns {
		s.txns[txn.ID.Hex()] = txn
	}
	return s
}

func (s *stubTransactionStore) Create(ctx context.Context, txn *models.Transaction) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.txns[txn.ID.Hex()] = txn
	return nil
}

func (s *stubTransactionStore) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.txns[id], nil
}

func (s *stubTransactionStore) List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, txn := range s.txns {
		out = append(out, *txn)
	}
	return out, nil
}

func (s *stubTransactionStore) ApplySettlement(ctx context.Context, id string, expectedStatuses []string, fields SettlementFields) (bool, error) {
	if s.applyErr != nil {
		return false, s.applyErr
	}
	txn, ok := s.txns[id]
	if !ok || !statusIn(txn.Status, expectedStatuses) {
		return false, nil
	}
	txn.Status = fields.Status
	commission := fields.CommissionAmount
	netSeller := fields.NetSellerAmount
	txn.CommissionAmount = &commission
	txn.NetSellerAmount = &netSeller
	if fields.UtrID != "" {
		txn.UtrID = fields.UtrID
	}
	return true, nil
}

func (s *stubTransactionStore) UpdateStatus(ctx context.Context, id string, expectedStatuses []string, newStatus string) (bool, error) {
	if s.updateErr != nil {
		return false, s.updateErr
	}
	txn, ok := s.txns[id]
	if !ok || !statusIn(txn.Status, expectedStatuses) {
		return false, nil
	}
	txn.Status = newStatus
	return true, nil
}

func statusIn(status string, expected []string) bool {
	for _, e := range expected {
		if e == status {
			return true
		}
	}
	return false
}

type stubProductStore struct {
	products  map[string]*models.Product
	findErr   error
	updateErr error
	updates   map[string]string
}

func newStubProductStore(products ...*models.Product) *stubProductStore {
	s := &stubProductStore{
		products: make(map[string]*models.Product),
		updates:  make(map[string]string),
	}
	for _, p := range products {
		s.products[p.ID.Hex()] = p
	}
	return s
}

func (s *stubProductStore) FindByID(ctx context.Context, id string) (*models.Product, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.products[id], nil
}

func (s *stubProductStore) UpdateStatus(ctx context.Context, id string, status string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if p, ok := s.products[id]; ok {
		p.Status = status
	}
	s.updates[id] = status
	return nil
}

type stubProfileStore struct {
	profiles map[string]*models.SellerProfile
	err      error
}

func (s *stubProfileStore) FindBySellerID(ctx context.Context, sellerID string) (*models.SellerProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profiles[sellerID], nil
}

type stubLocker struct {
	held map[string]bool
	err  error
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: make(map[string]bool)}
}

func (l *stubLocker) Acquire(ctx context.Context, key string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func profileStoreWith(sellerID string, level int) *stubProfileStore {
	return &stubProfileStore{profiles: map[string]*models.SellerProfile{
		sellerID: {UserID: sellerID, Level: level},
	}}
}

func newTestTransaction(status string) *models.Transaction {
	return &models.Transaction{
		ID:       newObjectID(),
		BuyerID:  "buyer-1",
		SellerID: "seller-1",
		Amount:   "1000.00",
		Status:   status,
	}
}

func paymentConfirmedEvent(txnID string, amount float64) models.SettlementEvent {
	return models.SettlementEvent{
		TransactionID: txnID,
		Status:        models.StatusPaymentConfirmed,
		SellerID:      "seller-1",
		Amount:        &amount,
	}
}

func TestSettleStandardSale(t *testing.T) {
	txn := newTestTransaction(models.StatusPaymentConfirmed)
	product := &models.Product{ID: newObjectID(), Type: models.ProductTypeSell, Status: models.ProductAvailable}
	transactions := newStubTransactionStore(txn)
	products := newStubProductStore(product)
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, products, profileStoreWith("seller-1", 1), nil)

	event := paymentConfirmedEvent(txn.ID.Hex(), 1000)
	event.ProductID = product.ID.Hex()
	event.UtrID = "UTR123456"

	ack, err := svc.Settle(context.Background(), event)
	if err != nil {
		t.Fatalf("Settle returned error: %v", err)
	}
	if !ack.Success {
		t.Fatalf("ack = %+v, want success", ack)
	}

	if txn.Status != models.StatusCommissionDeducted {
		t.Errorf("transaction status = %s, want %s", txn.Status, models.StatusCommissionDeducted)
	}
	if txn.CommissionAmount == nil || *txn.CommissionAmount != "113.20" {
		t.Errorf("commission = %v, want 113.20", txn.CommissionAmount)
	}
	if txn.NetSellerAmount == nil || *txn.NetSellerAmount != "886.80" {
		t.Errorf("net seller = %v, want 886.80", txn.NetSellerAmount)
	}
	if txn.UtrID != "UTR123456" {
		t.Errorf("utrId = %s, want UTR123456", txn.UtrID)
	}
	if product.Status != models.ProductSold {
		t.Errorf("product status = %s, want %s", product.Status, models.ProductSold)
	}
}

func TestSettleRentalMarksProductRented(t *testing.T) {
	txn := newTestTransaction(models.StatusPaymentConfirmed)
	product := &models.Product{ID: newObjectID(), Type: models.ProductTypeRent, Status: models.ProductAvailable}
	transactions := newStubTransactionStore(txn)
	products := newStubProductStore(product)
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, products, profileStoreWith("seller-1", 3), nil)

	event := paymentConfirmedEvent(txn.ID.Hex(), 250)
	event.ProductID = product.ID.Hex()

	if _, err := svc.Settle(context.Background(), event); err != nil {
		t.Fatalf("Settle returned error: %v", err)
	}
	if product.Status != models.ProductRented {
		t.Errorf("product status = %s, want %s", product.Status, models.ProductRented)
	}
}

func TestSettleUnknownProductTypeLeavesProduct(t *testing.T) {
	txn := newTestTransaction(models.StatusPaymentConfirmed)
	product := &models.Product{ID: newObjectID(), Type: "errand", Status: models.ProductAvailable}
	transactions := newStubTransactionStore(txn)
	products := newStubProductStore(product)
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, products, profileStoreWith("seller-1", 1), nil)

	event := paymentConfirmedEvent(txn.ID.Hex(), 100)
	event.ProductID = product.ID.Hex()

	if _, err := svc.Settle(context.Background(), event); err != nil {
		t.Fatalf("Settle returned error: %v", err)
	}
	if product.Status != models.ProductAvailable {
		t.Errorf("product status = %s, want unchanged", product.Status)
	}
	if len(products.updates) != 0 {
		t.Errorf("product updates = %v, want none", products.updates)
	}
}

func TestSettleMissingAmount(t *testing.T) {
	txn := newTestTransaction(models.StatusPaymentConfirmed)
	transactions := newStubTransactionStore(txn)
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(), profileStoreWith("seller-1", 1), nil)

	event := models.SettlementEvent{
		TransactionID: txn.ID.Hex(),
		Status:        models.StatusPaymentConfirmed,
		SellerID:      "seller-1",
	}

	ack, err := svc.Settle(context.Background(), event)
	if !errors.Is(err, ErrMissingAmount) {
		t.Fatalf("Settle error = %v, want ErrMissingAmount", err)
	}
	if ack.Success {
		t.Errorf("ack = %+v, want failure", ack)
	}
	if txn.Status != models.StatusPaymentConfirmed {
		t.Errorf("transaction status = %s, want unchanged", txn.Status)
	}
}

func TestSettleNegativeAmount(t *testing.T) {
	txn := newTestTransaction(models.StatusPaymentConfirmed)
	transactions := newStubTransactionStore(txn)
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(), profileStoreWith("seller-1", 1), nil)

	ack, err := svc.Settle(context.Background(), paymentConfirmedEvent(txn.ID.Hex(), -1000))
	if !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("Settle error = %v, want ErrNegativeAmount", err)
	}
	if ack.Success {
		t.Errorf("ack = %+v, want failure", ack)
	}
	if txn.Status != models.StatusPaymentConfirmed {
		t.Errorf("transaction status = %s, want unchanged", txn.Status)
	}
	if txn.CommissionAmount != nil || txn.NetSellerAmount != nil {
		t.Errorf("commission = %v, net = %v, want neither written", txn.CommissionAmount, txn.NetSellerAmount)
	}
}

func TestSettleDefaultsLevelWhenProfileMissing(t *testing.T) {
	txn := newTestTransaction(models.StatusPaymentConfirmed)
	transactions := newStubTransactionStore(txn)
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(),
		&stubProfileStore{profiles: map[string]*models.SellerProfile{}}, nil)

	ack, err := svc.Settle(context.Background(), paymentConfirmedEvent(txn.ID.Hex(), 1000))
	if err != nil {
		t.Fatalf("Settle returned error: %v", err)
	}
	if !ack.Success {
		t.Fatalf("ack = %+v, want success", ack)
	}
	// Level 1 commission on 1000
	if txn.CommissionAmount == nil || *txn.CommissionAmount != "113.20" {
		t.Errorf("commission = %v, want level-1 commission 113.20", txn.CommissionAmount)
	}
}

func TestSettleDefaultsLevelWhenLookupFails(t *testing.T) {
	txn := newTestTransaction(models.StatusPaymentConfirmed)
	transactions := newStubTransactionStore(txn)
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(),
		&stubProfileStore{err: errors.New("profile store unreachable")}, nil)

	ack, err := svc.Settle(context.Background(), paymentConfirmedEvent(txn.ID.Hex(), 1000))
	if err != nil {
		t.Fatalf("Settle returned error: %v", err)
	}
	if !ack.Success {
		t.Fatalf("ack = %+v, want success despite degraded profile store", ack)
	}
	if txn.CommissionAmount == nil || *txn.CommissionAmount != "113.20" {
		t.Errorf("commission = %v, want level-1 commission 113.20", txn.CommissionAmount)
	}
}

func TestResolveSellerLevel(t *testing.T) {
	tests := []struct {
		name          string
		profiles      *stubProfileStore
		wantLevel     int
		wantDefaulted bool
	}{
		{"found", profileStoreWith("seller-1", 7), 7, false},
		{"not found", &stubProfileStore{profiles: map[string]*models.SellerProfile{}}, 1, true},
		{"lookup error", &stubProfileStore{err: errors.New("boom")}, 1, true},
		{"zero level", profileStoreWith("seller-1", 0), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSettlementService(DefaultCommissionConfig(), newStubTransactionStore(), newStubProductStore(), tt.profiles, nil)
			resolution := svc.ResolveSellerLevel(context.Background(), "seller-1")
			if resolution.Level != tt.wantLevel {
				t.Errorf("level = %d, want %d", resolution.Level, tt.wantLevel)
			}
			if resolution.Defaulted != tt.wantDefaulted {
				t.Errorf("defaulted = %v, want %v (reason %q)", resolution.Defaulted, tt.wantDefaulted, resolution.Reason)
			}
			if tt.wantDefaulted && resolution.Reason == "" {
				t.Error("defaulted resolution carries no reason")
			}
		})
	}
}

func TestSettleIdempotent(t *testing.T) {
	txn := newTestTransaction(models.StatusPaymentConfirmed)
	transactions := newStubTransactionStore(txn)
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(), profileStoreWith("seller-1", 1), nil)

	event := paymentConfirmedEvent(txn.ID.Hex(), 1000)

	if _, err := svc.Settle(context.Background(), event); err != nil {
		t.Fatalf("first Settle returned error: %v", err)
	}
	firstCommission := *txn.CommissionAmount

	ack, err := svc.Settle(context.Background(), event)
	if err != nil {
		t.Fatalf("second Settle returned error: %v", err)
	}
	if !ack.Success {
		t.Fatalf("second ack = %+v, want success", ack)
	}
	if *txn.CommissionAmount != firstCommission {
		t.Errorf("commission changed on redelivery: %s -> %s", firstCommission, *txn.CommissionAmount)
	}
	if txn.Status != models.StatusCommissionDeducted {
		t.Errorf("status = %s, want %s", txn.Status, models.StatusCommissionDeducted)
	}
}

func TestSettleDuplicateDroppedByLock(t *testing.T) {
	txn := newTestTransaction(models.StatusPaymentConfirmed)
	transactions := newStubTransactionStore(txn)
	locker := newStubLocker()
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(), profileStoreWith("seller-1", 1), locker)

	event := paymentConfirmedEvent(txn.ID.Hex(), 1000)

	if _, err := svc.Settle(context.Background(), event); err != nil {
		t.Fatalf("first Settle returned error: %v", err)
	}
	ack, err := svc.Settle(context.Background(), event)
	if err != nil {
		t.Fatalf("second Settle returned error: %v", err)
	}
	if !ack.Success || ack.Message != "duplicate delivery ignored" {
		t.Errorf("second ack = %+v, want duplicate-delivery no-op", ack)
	}
}

func TestSettleProceedsWhenLockerFails(t *testing.T) {
	txn := newTestTransaction(models.StatusPaymentConfirmed)
	transactions := newStubTransactionStore(txn)
	locker := newStubLocker()
	locker.err = errors.New("redis down")
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(), profileStoreWith("seller-1", 1), locker)

	ack, err := svc.Settle(context.Background(), paymentConfirmedEvent(txn.ID.Hex(), 1000))
	if err != nil {
		t.Fatalf("Settle returned error: %v", err)
	}
	if !ack.Success {
		t.Fatalf("ack = %+v, want success despite locker failure", ack)
	}
	if txn.Status != models.StatusCommissionDeducted {
		t.Errorf("status = %s, want %s", txn.Status, models.StatusCommissionDeducted)
	}
}

func TestSettleProductFailureDoesNotFailEvent(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*stubProductStore)
	}{
		{"fetch fails", func(s *stubProductStore) { s.findErr = errors.New("product store down") }},
		{"update fails", func(s *stubProductStore) { s.updateErr = errors.New("write refused") }},
		{"product missing", func(s *stubProductStore) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := newTestTransaction(models.StatusPaymentConfirmed)
			transactions := newStubTransactionStore(txn)
			products := newStubProductStore(&models.Product{ID: newObjectID(), Type: models.ProductTypeSell})
			tt.prepare(products)
			svc := NewSettlementService(DefaultCommissionConfig(), transactions, products, profileStoreWith("seller-1", 1), nil)

			event := paymentConfirmedEvent(txn.ID.Hex(), 1000)
			event.ProductID = newObjectID().Hex()

			ack, err := svc.Settle(context.Background(), event)
			if err != nil {
				t.Fatalf("Settle returned error: %v", err)
			}
			if !ack.Success {
				t.Fatalf("ack = %+v, want success despite product failure", ack)
			}
			if txn.Status != models.StatusCommissionDeducted {
				t.Errorf("status = %s, want %s", txn.Status, models.StatusCommissionDeducted)
			}
			if txn.CommissionAmount == nil || *txn.CommissionAmount != "113.20" {
				t.Errorf("commission = %v, want 113.20", txn.CommissionAmount)
			}
		})
	}
}

func TestSettleTransactionWriteFailureIsFatal(t *testing.T) {
	txn := newTestTransaction(models.StatusPaymentConfirmed)
	transactions := newStubTransactionStore(txn)
	transactions.applyErr = errors.New("mongo unavailable")
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(), profileStoreWith("seller-1", 1), nil)

	ack, err := svc.Settle(context.Background(), paymentConfirmedEvent(txn.ID.Hex(), 1000))
	if err == nil {
		t.Fatal("Settle returned nil error, want persistence failure")
	}
	if ack.Success {
		t.Errorf("ack = %+v, want failure", ack)
	}
}

func TestSettleDeliveryConfirmation(t *testing.T) {
	txn := newTestTransaction(models.StatusCommissionDeducted)
	commission := "113.20"
	netSeller := "886.80"
	txn.CommissionAmount = &commission
	txn.NetSellerAmount = &netSeller
	transactions := newStubTransactionStore(txn)
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(), profileStoreWith("seller-1", 1), nil)

	ack, err := svc.Settle(context.Background(), models.SettlementEvent{
		TransactionID: txn.ID.Hex(),
		Status:        models.StatusSellerConfirmedDelivery,
		SellerID:      "seller-1",
	})
	if err != nil {
		t.Fatalf("Settle returned error: %v", err)
	}
	if !ack.Success {
		t.Fatalf("ack = %+v, want success", ack)
	}
	if txn.Status != models.StatusPaidToSeller {
		t.Errorf("status = %s, want %s", txn.Status, models.StatusPaidToSeller)
	}
	if *txn.CommissionAmount != commission || *txn.NetSellerAmount != netSeller {
		t.Error("delivery confirmation changed commission fields")
	}
}

func TestSettleDeliveryConfirmationOutOfOrder(t *testing.T) {
	txn := newTestTransaction(models.StatusInitiated)
	transactions := newStubTransactionStore(txn)
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(), profileStoreWith("seller-1", 1), nil)

	ack, err := svc.Settle(context.Background(), models.SettlementEvent{
		TransactionID: txn.ID.Hex(),
		Status:        models.StatusSellerConfirmedDelivery,
		SellerID:      "seller-1",
	})
	if err != nil {
		t.Fatalf("Settle returned error: %v", err)
	}
	if !ack.Success {
		t.Fatalf("ack = %+v, want acknowledged no-op", ack)
	}
	if txn.Status != models.StatusInitiated {
		t.Errorf("status = %s, want unchanged", txn.Status)
	}
}

func TestSettleNoOpStatuses(t *testing.T) {
	for _, status := range []string{models.StatusInitiated, "foo", "payment_pending", ""} {
		t.Run("status "+status, func(t *testing.T) {
			txn := newTestTransaction(models.StatusInitiated)
			transactions := newStubTransactionStore(txn)
			svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(), profileStoreWith("seller-1", 1), nil)

			ack, err := svc.Settle(context.Background(), models.SettlementEvent{
				TransactionID: txn.ID.Hex(),
				Status:        status,
				SellerID:      "seller-1",
			})
			if err != nil {
				t.Fatalf("Settle returned error: %v", err)
			}
			if !ack.Success {
				t.Errorf("ack = %+v, want success", ack)
			}
			if txn.Status != models.StatusInitiated {
				t.Errorf("status = %s, want unchanged", txn.Status)
			}
			if txn.CommissionAmount != nil {
				t.Error("no-op status set commission fields")
			}
		})
	}
}

func TestPreviewCommission(t *testing.T) {
	txn := newTestTransaction(models.StatusInitiated)
	txn.Amount = "1200.00"
	transactions := newStubTransactionStore(txn)
	svc := NewSettlementService(DefaultCommissionConfig(), transactions, newStubProductStore(), profileStoreWith("seller-1", 13), nil)

	preview, err := svc.PreviewCommission(context.Background(), txn.ID.Hex())
	if err != nil {
		t.Fatalf("PreviewCommission returned error: %v", err)
	}
	if preview.SellerLevel != 13 || preview.LevelDefaulted {
		t.Errorf("preview level = %d (defaulted %v), want 13", preview.SellerLevel, preview.LevelDefaulted)
	}
	if preview.CommissionAmount != "100.14" || preview.NetSellerAmount != "1099.86" {
		t.Errorf("preview split = %s/%s, want 100.14/1099.86", preview.CommissionAmount, preview.NetSellerAmount)
	}
	if txn.Status != models.StatusInitiated || txn.CommissionAmount != nil {
		t.Error("preview mutated the transaction")
	}

	if _, err := svc.PreviewCommission(context.Background(), newObjectID().Hex()); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("missing transaction error = %v, want ErrTransactionNotFound", err)
	}
}
