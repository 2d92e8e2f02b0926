package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is the catalog entry owned by a farmer. The order workflow only
// reads Name, Price and the first image.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       int64              `bson:"price" json:"price"`
	Unit        string             `bson:"unit" json:"unit"`
	Stock       int64              `bson:"stock" json:"stock"`
	Category    string             `bson:"category" json:"category"`
	Weight      int64              `bson:"weight" json:"weight"`
	FarmerID    primitive.ObjectID `bson:"farmerId" json:"farmerId"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt,omitempty" json:"updatedAt"`
}

// PrimaryImage returns the first image URL or an empty string.
func (p Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
