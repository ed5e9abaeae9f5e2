package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Endorsement struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	EndorserID primitive.ObjectID `json:"endorserID" bson:"endorser_id"`
	EndorsedID primitive.ObjectID `json:"endorsedID" bson:"endorsed_id"`
	Skill      string             `json:"skill" bson:"skill"`
	Timestamps `bson:",inline"`
}
