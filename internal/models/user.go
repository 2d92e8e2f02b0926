package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	RoleBuyer   = "buyer"
	RoleFarmer  = "farmer"
	RolePartner = "partner"
	RoleAdmin   = "admin"
)

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username    string             `bson:"username" json:"username"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	PhoneNumber string             `bson:"phoneNumber" json:"phoneNumber"`
	Role        string             `bson:"role" json:"role"`
}

// Principal is the authenticated caller threaded into handlers and services.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (u User) Principal() Principal {
	return Principal{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Phone: u.PhoneNumber,
		Role:  u.Role,
	}
}
