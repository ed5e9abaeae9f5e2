package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

type FriendRequest struct {
	ID         primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	From       primitive.ObjectID  `json:"from" bson:"from"`
	To         primitive.ObjectID  `json:"to" bson:"to"`
	Status     FriendRequestStatus `json:"status" bson:"status"`
	Timestamps `bson:",inline"`
}

type Friendship struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User1      primitive.ObjectID `json:"user1" bson:"user1"`
	User2      primitive.ObjectID `json:"user2" bson:"user2"`
	Timestamps `bson:",inline"`
}

// Other returns the member of the friendship that is not user.
func (f Friendship) Other(user primitive.ObjectID) primitive.ObjectID {
	if f.User1 == user {
		return f.User2
	}
	return f.User1
}

type FriendRequestView struct {
	From   string              `json:"from"`
	To     string              `json:"to"`
	Status FriendRequestStatus `json:"status"`
}
