package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostOptions struct {
	BackgroundColor string `json:"backgroundColor,omitempty" bson:"background_color,omitempty"`
}

// Post is also the event users join.
type Post struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Author     primitive.ObjectID `json:"author" bson:"author"`
	Content    string             `json:"content" bson:"content"`
	Options    *PostOptions       `json:"options,omitempty" bson:"options,omitempty"`
	Timestamps `bson:",inline"`
}

// PostView is a post with the author resolved to a username.
type PostView struct {
	ID          primitive.ObjectID `json:"_id"`
	Author      string             `json:"author"`
	Content     string             `json:"content"`
	Options     *PostOptions       `json:"options,omitempty"`
	DateCreated time.Time          `json:"dateCreated"`
	DateUpdated time.Time          `json:"dateUpdated"`
}
