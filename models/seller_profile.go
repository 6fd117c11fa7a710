// models/seller_profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SellerProfile carries the seller's marketplace reputation level. The
// settlement engine only reads it; profile maintenance belongs to the app.
// Level starts at 1 and is unbounded above; a missing or zero level is
// treated as level 1 by the commission engine.
type SellerProfile struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID      string             `json:"userId" bson:"userId"`
	FullName    string             `json:"fullName,omitempty" bson:"fullName,omitempty"`
	Level       int                `json:"level,omitempty" bson:"level,omitempty"`
	Phone       string             `json:"phone,omitempty" bson:"phone,omitempty"`
	HostelBlock string             `json:"hostelBlock,omitempty" bson:"hostelBlock,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
