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

// ParticipationService records which users joined which activities.
type ParticipationService struct {
	collection *mongo.Collection
	log        logrus.FieldLogger
}

func NewParticipationService(db *mongo.Database, logger logrus.FieldLogger) *ParticipationService {
	return &ParticipationService{collection: db.Collection("participations"), log: logger}
}

func (s *ParticipationService) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, s.collection,
		index(bson.D{{Key: "activity_id", Value: 1}}),
		uniqueIndex(bson.D{{Key: "user_id", Value: 1}, {Key: "activity_id", Value: 1}}),
	)
}

func (s *ParticipationService) JoinActivity(ctx context.Context, user, activity primitive.ObjectID) (models.Message, error) {
	joined, err := s.IsUserParticipant(ctx, user, activity)
	if err != nil {
		return models.Message{}, err
	}
	if joined {
		return models.Message{}, errors.NotAllowed("User has already joined this activity.")
	}

	participation := models.Participation{
		ID:         primitive.NewObjectID(),
		UserID:     user,
		ActivityID: activity,
		Timestamps: models.NewTimestamps(),
	}
	if _, err := s.collection.InsertOne(ctx, participation); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Message{}, errors.NotAllowed("User has already joined this activity.")
		}
		return models.Message{}, errors.DB(err, "failed to join activity")
	}
	s.log.WithFields(logrus.Fields{"user_id": user.Hex(), "activity_id": activity.Hex()}).Debug("Activity joined")
	return models.Message{Msg: "Successfully joined the activity."}, nil
}

func (s *ParticipationService) LeaveActivity(ctx context.Context, user, activity primitive.ObjectID) (models.Message, error) {
	result, err := s.collection.DeleteOne(ctx, bson.M{"user_id": user, "activity_id": activity})
	if err != nil {
		return models.Message{}, errors.DB(err, "failed to leave activity")
	}
	if result.DeletedCount == 0 {
		return models.Message{}, errors.NotFound("Participation record not found.")
	}
	return models.Message{Msg: "Successfully left the activity."}, nil
}

// GetParticipants returns the ids of users who joined the activity, in join order.
func (s *ParticipationService) GetParticipants(ctx context.Context, activity primitive.ObjectID) ([]primitive.ObjectID, error) {
	participations, err := findAll[models.Participation](ctx, s.collection, bson.M{"activity_id": activity})
	if err != nil {
		return nil, errors.DB(err, "failed to read participants")
	}
	ids := make([]primitive.ObjectID, len(participations))
	for i, p := range participations {
		ids[i] = p.UserID
	}
	return ids, nil
}

func (s *ParticipationService) GetActivitiesForUser(ctx context.Context, user primitive.ObjectID) ([]primitive.ObjectID, error) {
	participations, err := findAll[models.Participation](ctx, s.collection, bson.M{"user_id": user})
	if err != nil {
		return nil, errors.DB(err, "failed to read activities")
	}
	ids := make([]primitive.ObjectID, len(participations))
	for i, p := range participations {
		ids[i] = p.ActivityID
	}
	return ids, nil
}

func (s *ParticipationService) IsUserParticipant(ctx context.Context, user, activity primitive.ObjectID) (bool, error) {
	err := s.collection.FindOne(ctx, bson.M{"user_id": user, "activity_id": activity}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, errors.DB(err, "failed to read participation")
	}
	return true, nil
}
