package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Location struct {
	ID        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userID" bson:"user_id"`
	Latitude  float64            `json:"latitude" bson:"latitude"`
	Longitude float64            `json:"longitude" bson:"longitude"`
	Point     GeoPoint           `json:"-" bson:"point"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
}

type SharingStatus struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	UserID  primitive.ObjectID `bson:"user_id"`
	Enabled bool               `bson:"enabled"`
}

type TrustedContacts struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	UserID     primitive.ObjectID   `bson:"user_id"`
	Contacts   []primitive.ObjectID `bson:"contacts"`
	Timestamps `bson:",inline"`
}

// LocationUpdate is published whenever a user's shared location changes.
// Sharing is false when the user stopped sharing.
type LocationUpdate struct {
	UserID    string    `json:"userID"`
	Username  string    `json:"username,omitempty"`
	Sharing   bool      `json:"sharing"`
	Latitude  float64   `json:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NearbyContact is a user sharing with the caller within the search radius.
type NearbyContact struct {
	Username string  `json:"username"`
	UserID   string  `json:"user_id"`
	Distance float64 `json:"distance"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}
