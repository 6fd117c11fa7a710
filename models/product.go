// models/product.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product types. The set is open: errands and other listing kinds pass
// through settlement without a status flip.
const (
	ProductTypeSell = "sell"
	ProductTypeRent = "rent"
)

// Product statuses
const (
	ProductAvailable = "available"
	ProductSold      = "sold"
	ProductRented    = "rented"
)

// Product model
type Product struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Type        string             `json:"type" bson:"type"`
	Status      string             `json:"status" bson:"status"`
	Price       string             `json:"price" bson:"price"`
	SellerID    string             `json:"sellerId" bson:"sellerId"`
	ImagePath   string             `json:"imagePath,omitempty" bson:"imagePath,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
