package services

import (
	"context"
	"strings"

	"go-social/models"
	"go-social/utils/errors"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// EndorsementService stores skill endorsements between users.
type EndorsementService struct {
	collection *mongo.Collection
	log        logrus.FieldLogger
}

func NewEndorsementService(db *mongo.Database, logger logrus.FieldLogger) *EndorsementService {
	return &EndorsementService{collection: db.Collection("endorsements"), log: logger}
}

// EnsureIndexes makes one endorsement per (endorser, endorsed, skill).
func (s *EndorsementService) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, s.collection,
		uniqueIndex(bson.D{{Key: "endorser_id", Value: 1}, {Key: "endorsed_id", Value: 1}, {Key: "skill", Value: 1}}),
		index(bson.D{{Key: "endorsed_id", Value: 1}}),
	)
}

func (s *EndorsementService) EndorseUser(ctx context.Context, endorser, endorsed primitive.ObjectID, skill string) (models.Message, error) {
	if endorser == endorsed {
		return models.Message{}, errors.NotAllowed("You cannot endorse yourself.")
	}
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return models.Message{}, errors.NotAllowed("Skill must be non-empty.")
	}

	endorsement := models.Endorsement{
		ID:         primitive.NewObjectID(),
		EndorserID: endorser,
		EndorsedID: endorsed,
		Skill:      skill,
		Timestamps: models.NewTimestamps(),
	}
	if _, err := s.collection.InsertOne(ctx, endorsement); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Message{}, errors.NotAllowed("You have already endorsed this user for %s.", skill)
		}
		return models.Message{}, errors.DB(err, "failed to add endorsement")
	}
	s.log.WithFields(logrus.Fields{"endorser": endorser.Hex(), "endorsed": endorsed.Hex(), "skill": skill}).Debug("Endorsement added")
	return models.Message{Msg: "Endorsement added successfully."}, nil
}

func (s *EndorsementService) RemoveEndorsement(ctx context.Context, endorser, endorsed primitive.ObjectID, skill string) (models.Message, error) {
	filter := bson.M{"endorser_id": endorser, "endorsed_id": endorsed, "skill": strings.TrimSpace(skill)}
	result, err := s.collection.DeleteOne(ctx, filter)
	if err != nil {
		return models.Message{}, errors.DB(err, "failed to remove endorsement")
	}
	if result.DeletedCount == 0 {
		return models.Message{}, errors.NotFound("Endorsement not found.")
	}
	return models.Message{Msg: "Endorsement removed successfully."}, nil
}

func (s *EndorsementService) GetReceivedEndorsements(ctx context.Context, endorsed primitive.ObjectID) ([]models.Endorsement, error) {
	return s.readMany(ctx, bson.M{"endorsed_id": endorsed})
}

func (s *EndorsementService) GetGivenEndorsements(ctx context.Context, endorser primitive.ObjectID) ([]models.Endorsement, error) {
	return s.readMany(ctx, bson.M{"endorser_id": endorser})
}

// GetEndorsedSkills counts the endorsements a user received per skill.
func (s *EndorsementService) GetEndorsedSkills(ctx context.Context, endorsed primitive.ObjectID) (map[string]int, error) {
	endorsements, err := s.GetReceivedEndorsements(ctx, endorsed)
	if err != nil {
		return nil, err
	}
	skills := make(map[string]int)
	for _, e := range endorsements {
		skills[e.Skill]++
	}
	return skills, nil
}

func (s *EndorsementService) readMany(ctx context.Context, filter bson.M) ([]models.Endorsement, error) {
	endorsements, err := findAll[models.Endorsement](ctx, s.collection, filter)
	if err != nil {
		return nil, errors.DB(err, "failed to read endorsements")
	}
	return endorsements, nil
}
