package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Participation struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID     primitive.ObjectID `json:"userID" bson:"user_id"`
	ActivityID primitive.ObjectID `json:"activityID" bson:"activity_id"`
	Timestamps `bson:",inline"`
}
