package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
)

// MethodGovernmentID is the only accepted verification method.
const MethodGovernmentID = "government_id"

type VerificationData struct {
	Method string `json:"method" bson:"method"`
	Data   string `json:"data" bson:"data"`
}

type Verification struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID           primitive.ObjectID `json:"userID" bson:"user_id"`
	VerificationData VerificationData   `json:"verificationData" bson:"verification_data"`
	Status           VerificationStatus `json:"status" bson:"status"`
	Timestamps       `bson:",inline"`
}
