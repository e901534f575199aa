package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type (
	Player struct {
		ID           primitive.ObjectID `bson:"_id,omitempty"`
		Name         string             `bson:"name"`
		PasswordHash []byte             `bson:"password_hash"`
		Disabled     bool               `bson:"disabled"`
		CreatedAt    time.Time          `bson:"created_at"`
		LastLoginAt  time.Time          `bson:"last_login_at,omitempty"`
		LastAddress  string             `bson:"last_address,omitempty"`
	}
)
