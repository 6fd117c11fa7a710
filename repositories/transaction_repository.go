package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/natpethunai/marketplace_backend/config"
	"github.com/natpethunai/marketplace_backend/models"
	"github.com/natpethunai/marketplace_backend/services"
)

type TransactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(db *mongo.Client) *TransactionRepository {
	return &TransactionRepository{
		collection: config.GetCollection(db, "transactions"),
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if txn.ID.IsZero() {
		txn.ID = primitive.NewObjectID()
	}
	now := time.Now()
	txn.CreatedAt = now
	txn.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, txn)
	return err
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var txn models.Transaction
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&txn)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.SellerID != "" {
		query["sellerId"] = filter.SellerID
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var transactions []models.Transaction
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// ApplySettlement writes the commission fields and moves the transaction to
// the settled status, but only if its current status is still one of the
// expected values. Returns false when the precondition no longer holds,
// which is how a redelivered confirmation becomes a no-op instead of a
// double deduction. The payment reference is only set when the event
// carried one; it is never cleared.
func (r *TransactionRepository) ApplySettlement(ctx context.Context, id string, expectedStatuses []string, fields services.SettlementFields) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, err
	}

	set := bson.M{
		"status":           fields.Status,
		"commissionAmount": fields.CommissionAmount,
		"netSellerAmount":  fields.NetSellerAmount,
		"updatedAt":        time.Now(),
	}
	if fields.UtrID != "" {
		set["utrId"] = fields.UtrID
	}

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": expectedStatuses},
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// UpdateStatus performs a pure status move with the same expected-status
// precondition as ApplySettlement.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, expectedStatuses []string, newStatus string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, err
	}

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": expectedStatuses},
	}
	update := bson.M{
		"$set": bson.M{
			"status":    newStatus,
			"updatedAt": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}
