package services

import (
	"context"
	"strings"
	"time"

	"go-social/models"
	"go-social/utils/errors"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// VerificationService tracks identity verification, one record per user.
type VerificationService struct {
	collection *mongo.Collection
	log        logrus.FieldLogger
}

func NewVerificationService(db *mongo.Database, logger logrus.FieldLogger) *VerificationService {
	return &VerificationService{collection: db.Collection("verifications"), log: logger}
}

func (s *VerificationService) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, s.collection,
		uniqueIndex(bson.D{{Key: "user_id", Value: 1}}),
		index(bson.D{{Key: "status", Value: 1}}),
	)
}

// SubmitVerification files data for review. Unverified (rejected) users may resubmit.
func (s *VerificationService) SubmitVerification(ctx context.Context, user primitive.ObjectID, data models.VerificationData) (models.Message, error) {
	if data.Method != models.MethodGovernmentID {
		return models.Message{}, errors.NotAllowed("Invalid verification method. Only '%s' is allowed.", models.MethodGovernmentID)
	}
	if strings.TrimSpace(data.Data) == "" {
		return models.Message{}, errors.NotAllowed("Verification data must be non-empty.")
	}

	existing, err := s.find(ctx, user)
	switch {
	case errors.IsNotFound(err):
		record := models.Verification{
			ID:               primitive.NewObjectID(),
			UserID:           user,
			VerificationData: data,
			Status:           models.VerificationPending,
			Timestamps:       models.NewTimestamps(),
		}
		if _, err := s.collection.InsertOne(ctx, record); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return models.Message{}, errors.NotAllowed("Verification already submitted or approved.")
			}
			return models.Message{}, errors.DB(err, "failed to submit verification")
		}
	case err != nil:
		return models.Message{}, err
	case existing.Status == models.VerificationVerified || existing.Status == models.VerificationPending:
		return models.Message{}, errors.NotAllowed("Verification already submitted or approved.")
	default:
		if err := s.update(ctx, user, bson.M{"verification_data": data, "status": models.VerificationPending}); err != nil {
			return models.Message{}, err
		}
	}

	s.log.WithField("user_id", user.Hex()).Info("Verification submitted")
	return models.Message{Msg: "Verification submitted successfully."}, nil
}

func (s *VerificationService) ApproveVerification(ctx context.Context, user primitive.ObjectID) (models.Message, error) {
	if err := s.setStatus(ctx, user, models.VerificationVerified); err != nil {
		return models.Message{}, err
	}
	return models.Message{Msg: "Verification approved successfully."}, nil
}

func (s *VerificationService) RejectVerification(ctx context.Context, user primitive.ObjectID) (models.Message, error) {
	if err := s.setStatus(ctx, user, models.VerificationUnverified); err != nil {
		return models.Message{}, err
	}
	return models.Message{Msg: "Verification rejected."}, nil
}

// GetVerificationStatus reports unverified for users without a record.
func (s *VerificationService) GetVerificationStatus(ctx context.Context, user primitive.ObjectID) (models.VerificationStatus, error) {
	record, err := s.find(ctx, user)
	if errors.IsNotFound(err) {
		return models.VerificationUnverified, nil
	}
	if err != nil {
		return "", err
	}
	return record.Status, nil
}

func (s *VerificationService) AssertUserVerified(ctx context.Context, user primitive.ObjectID) error {
	status, err := s.GetVerificationStatus(ctx, user)
	if err != nil {
		return err
	}
	if status != models.VerificationVerified {
		return errors.NotAllowed("User is not verified.")
	}
	return nil
}

// ListPending returns records awaiting review, oldest first.
func (s *VerificationService) ListPending(ctx context.Context) ([]models.Verification, error) {
	records, err := findAll[models.Verification](ctx, s.collection, bson.M{"status": models.VerificationPending}, oldestFirst())
	if err != nil {
		return nil, errors.DB(err, "failed to read verifications")
	}
	return records, nil
}

func (s *VerificationService) setStatus(ctx context.Context, user primitive.ObjectID, status models.VerificationStatus) error {
	if _, err := s.find(ctx, user); err != nil {
		return err
	}
	if err := s.update(ctx, user, bson.M{"status": status}); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.Hex(), "status": status}).Info("Verification reviewed")
	return nil
}

func (s *VerificationService) find(ctx context.Context, user primitive.ObjectID) (models.Verification, error) {
	var record models.Verification
	err := s.collection.FindOne(ctx, bson.M{"user_id": user}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return models.Verification{}, errors.NotFound("Verification record not found.")
	}
	if err != nil {
		return models.Verification{}, errors.DB(err, "failed to read verification")
	}
	return record, nil
}

func (s *VerificationService) update(ctx context.Context, user primitive.ObjectID, set bson.M) error {
	set["date_updated"] = time.Now().UTC()
	if _, err := s.collection.UpdateOne(ctx, bson.M{"user_id": user}, bson.M{"$set": set}); err != nil {
		return errors.DB(err, "failed to update verification")
	}
	return nil
}
