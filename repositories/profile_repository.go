package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/natpethunai/marketplace_backend/config"
	"github.com/natpethunai/marketplace_backend/models"
)

type ProfileRepository struct {
	collection *mongo.Collection
}

func NewProfileRepository(db *mongo.Client) *ProfileRepository {
	return &ProfileRepository{
		collection: config.GetCollection(db, "sellerProfiles"),
	}
}

// FindBySellerID fetches at most one profile by seller id. Returns
// (nil, nil) when no profile exists; the caller decides what a missing
// profile means.
func (r *ProfileRepository) FindBySellerID(ctx context.Context, sellerID string) (*models.SellerProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var profile models.SellerProfile
	err := r.collection.FindOne(ctx, bson.M{"userId": sellerID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
