package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DeletedUsername stands in for ids that no longer resolve to a user.
const DeletedUsername = "DELETED_USER"

type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	Role         Role               `json:"role" bson:"role"`
	Timestamps   `bson:",inline"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
