package models

import "time"

// User is a calendar participant. ID is the display name shown on the
// grid and doubles as the occupant value stored in slots. The secret
// is a short PIN, kept only as a bcrypt hash.
type User struct {
	ID         string    `bson:"id" json:"id"`
	SecretHash string    `bson:"secretHash" json:"-"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"-"`
}

// UserCredentials is the register/login request payload.
type UserCredentials struct {
	Name   string `json:"name" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}
