package services

import (
	"context"

	"go-social/models"
	"go-social/utils/errors"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FriendService keeps friend requests and the friendships they create.
type FriendService struct {
	friends  *mongo.Collection
	requests *mongo.Collection
	log      logrus.FieldLogger
}

func NewFriendService(db *mongo.Database, logger logrus.FieldLogger) *FriendService {
	return &FriendService{
		friends:  db.Collection("friends"),
		requests: db.Collection("friend_requests"),
		log:      logger,
	}
}

func (s *FriendService) EnsureIndexes(ctx context.Context) error {
	if err := createIndexes(ctx, s.friends,
		index(bson.D{{Key: "user1", Value: 1}}),
		index(bson.D{{Key: "user2", Value: 1}}),
	); err != nil {
		return err
	}
	return createIndexes(ctx, s.requests,
		index(bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}, {Key: "status", Value: 1}}),
		index(bson.D{{Key: "to", Value: 1}}),
	)
}

// GetRequests returns requests sent or received by user.
func (s *FriendService) GetRequests(ctx context.Context, user primitive.ObjectID) ([]models.FriendRequest, error) {
	filter := bson.M{"$or": bson.A{bson.M{"from": user}, bson.M{"to": user}}}
	requests, err := findAll[models.FriendRequest](ctx, s.requests, filter, newestFirst())
	if err != nil {
		return nil, errors.DB(err, "failed to read friend requests")
	}
	return requests, nil
}

func (s *FriendService) SendRequest(ctx context.Context, from, to primitive.ObjectID) (models.Message, error) {
	if err := s.assertNotFriends(ctx, from, to); err != nil {
		return models.Message{}, err
	}
	err := s.requests.FindOne(ctx, pendingBetween(from, to)).Err()
	if err == nil {
		return models.Message{}, errors.NotAllowed("Friend request between %s and %s already exists!", from.Hex(), to.Hex())
	}
	if err != mongo.ErrNoDocuments {
		return models.Message{}, errors.DB(err, "failed to read friend requests")
	}

	if err := s.insertRequest(ctx, from, to, models.FriendRequestPending); err != nil {
		return models.Message{}, err
	}
	s.log.WithFields(logrus.Fields{"from": from.Hex(), "to": to.Hex()}).Info("Friend request sent")
	return models.Message{Msg: "Sent request!"}, nil
}

// AcceptRequest resolves the pending request from→to and befriends the pair.
func (s *FriendService) AcceptRequest(ctx context.Context, from, to primitive.ObjectID) (models.Message, error) {
	if err := s.assertNotFriends(ctx, from, to); err != nil {
		return models.Message{}, err
	}
	if err := s.removePendingRequest(ctx, from, to); err != nil {
		return models.Message{}, err
	}
	if err := s.insertRequest(ctx, from, to, models.FriendRequestAccepted); err != nil {
		return models.Message{}, err
	}
	friendship := models.Friendship{
		ID:         primitive.NewObjectID(),
		User1:      from,
		User2:      to,
		Timestamps: models.NewTimestamps(),
	}
	if _, err := s.friends.InsertOne(ctx, friendship); err != nil {
		return models.Message{}, errors.DB(err, "failed to add friend")
	}
	s.log.WithFields(logrus.Fields{"from": from.Hex(), "to": to.Hex()}).Info("Friend request accepted")
	return models.Message{Msg: "Accepted request!"}, nil
}

func (s *FriendService) RejectRequest(ctx context.Context, from, to primitive.ObjectID) (models.Message, error) {
	if err := s.removePendingRequest(ctx, from, to); err != nil {
		return models.Message{}, err
	}
	if err := s.insertRequest(ctx, from, to, models.FriendRequestRejected); err != nil {
		return models.Message{}, err
	}
	return models.Message{Msg: "Rejected request!"}, nil
}

// RemoveRequest withdraws a pending request.
func (s *FriendService) RemoveRequest(ctx context.Context, from, to primitive.ObjectID) (models.Message, error) {
	if err := s.removePendingRequest(ctx, from, to); err != nil {
		return models.Message{}, err
	}
	return models.Message{Msg: "Removed request!"}, nil
}

func (s *FriendService) RemoveFriend(ctx context.Context, user, friend primitive.ObjectID) (models.Message, error) {
	result, err := s.friends.DeleteMany(ctx, friendshipFilter(user, friend))
	if err != nil {
		return models.Message{}, errors.DB(err, "failed to remove friend")
	}
	if result.DeletedCount == 0 {
		return models.Message{}, errors.NotFound("Friendship between %s and %s does not exist!", user.Hex(), friend.Hex())
	}
	return models.Message{Msg: "Unfriended!"}, nil
}

// GetFriends returns the ids of user's friends.
func (s *FriendService) GetFriends(ctx context.Context, user primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{"$or": bson.A{bson.M{"user1": user}, bson.M{"user2": user}}}
	friendships, err := findAll[models.Friendship](ctx, s.friends, filter)
	if err != nil {
		return nil, errors.DB(err, "failed to read friends")
	}
	ids := make([]primitive.ObjectID, len(friendships))
	for i, f := range friendships {
		ids[i] = f.Other(user)
	}
	return ids, nil
}

func (s *FriendService) insertRequest(ctx context.Context, from, to primitive.ObjectID, status models.FriendRequestStatus) error {
	request := models.FriendRequest{
		ID:         primitive.NewObjectID(),
		From:       from,
		To:         to,
		Status:     status,
		Timestamps: models.NewTimestamps(),
	}
	if _, err := s.requests.InsertOne(ctx, request); err != nil {
		return errors.DB(err, "failed to store friend request")
	}
	return nil
}

func (s *FriendService) removePendingRequest(ctx context.Context, from, to primitive.ObjectID) error {
	err := s.requests.FindOneAndDelete(ctx, bson.M{"from": from, "to": to, "status": models.FriendRequestPending}).Err()
	if err == mongo.ErrNoDocuments {
		return errors.NotFound("Friend request from %s to %s does not exist!", from.Hex(), to.Hex())
	}
	if err != nil {
		return errors.DB(err, "failed to remove friend request")
	}
	return nil
}

func (s *FriendService) assertNotFriends(ctx context.Context, u1, u2 primitive.ObjectID) error {
	if u1 == u2 {
		return errors.NotAllowed("You cannot befriend yourself.")
	}
	err := s.friends.FindOne(ctx, friendshipFilter(u1, u2)).Err()
	if err == nil {
		return errors.NotAllowed("Users %s and %s are already friends!", u1.Hex(), u2.Hex())
	}
	if err != mongo.ErrNoDocuments {
		return errors.DB(err, "failed to read friends")
	}
	return nil
}

// pendingBetween matches a pending request in either direction.
func pendingBetween(u1, u2 primitive.ObjectID) bson.M {
	pair := bson.A{u1, u2}
	return bson.M{
		"status": models.FriendRequestPending,
		"from":   bson.M{"$in": pair},
		"to":     bson.M{"$in": pair},
	}
}

func friendshipFilter(u1, u2 primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"user1": u1, "user2": u2},
		bson.M{"user1": u2, "user2": u1},
	}}
}
