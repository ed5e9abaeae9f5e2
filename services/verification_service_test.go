package services

import (
	"context"
	"testing"

	"go-social/models"
	"go-social/utils/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func verificationRecord(user primitive.ObjectID, status models.VerificationStatus) models.Verification {
	return models.Verification{
		ID:               primitive.NewObjectID(),
		UserID:           user,
		VerificationData: models.VerificationData{Method: models.MethodGovernmentID, Data: "passport"},
		Status:           status,
		Timestamps:       models.NewTimestamps(),
	}
}

func TestVerificationSubmit(t *testing.T) {
	mt := newMockMongo(t)
	ctx := context.Background()
	user := primitive.NewObjectID()
	data := models.VerificationData{Method: models.MethodGovernmentID, Data: "passport"}

	mt.Run("first submission", func(mt *mtest.T) {
		svc := NewVerificationService(mt.DB, quietLogger())
		mt.AddMockResponses(cursorOf(), inserted())

		msg, err := svc.SubmitVerification(ctx, user, data)
		require.NoError(mt, err)
		assert.Equal(mt, "Verification submitted successfully.", msg.Msg)
	})

	mt.Run("unknown method", func(mt *mtest.T) {
		svc := NewVerificationService(mt.DB, quietLogger())

		_, err := svc.SubmitVerification(ctx, user, models.VerificationData{Method: "selfie", Data: "x"})
		assert.True(mt, errors.IsNotAllowed(err))
	})

	mt.Run("empty data", func(mt *mtest.T) {
		svc := NewVerificationService(mt.DB, quietLogger())

		_, err := svc.SubmitVerification(ctx, user, models.VerificationData{Method: models.MethodGovernmentID})
		assert.True(mt, errors.IsNotAllowed(err))
	})

	for _, status := range []models.VerificationStatus{models.VerificationPending, models.VerificationVerified} {
		mt.Run("already "+string(status), func(mt *mtest.T) {
			svc := NewVerificationService(mt.DB, quietLogger())
			mt.AddMockResponses(cursorOf(toDoc(mt.T, verificationRecord(user, status))))

			_, err := svc.SubmitVerification(ctx, user, data)
			require.Error(mt, err)
			assert.Contains(mt, err.Error(), "Verification already submitted or approved.")
		})
	}

	mt.Run("resubmit after rejection", func(mt *mtest.T) {
		svc := NewVerificationService(mt.DB, quietLogger())
		mt.AddMockResponses(cursorOf(toDoc(mt.T, verificationRecord(user, models.VerificationUnverified))), matched(1))

		_, err := svc.SubmitVerification(ctx, user, data)
		assert.NoError(mt, err)
	})
}

func TestVerificationReview(t *testing.T) {
	mt := newMockMongo(t)
	ctx := context.Background()
	user := primitive.NewObjectID()

	mt.Run("approve", func(mt *mtest.T) {
		svc := NewVerificationService(mt.DB, quietLogger())
		mt.AddMockResponses(cursorOf(toDoc(mt.T, verificationRecord(user, models.VerificationPending))), matched(1))

		msg, err := svc.ApproveVerification(ctx, user)
		require.NoError(mt, err)
		assert.Equal(mt, "Verification approved successfully.", msg.Msg)
	})

	mt.Run("reject", func(mt *mtest.T) {
		svc := NewVerificationService(mt.DB, quietLogger())
		mt.AddMockResponses(cursorOf(toDoc(mt.T, verificationRecord(user, models.VerificationPending))), matched(1))

		msg, err := svc.RejectVerification(ctx, user)
		require.NoError(mt, err)
		assert.Equal(mt, "Verification rejected.", msg.Msg)
	})

	mt.Run("approve without record", func(mt *mtest.T) {
		svc := NewVerificationService(mt.DB, quietLogger())
		mt.AddMockResponses(cursorOf())

		_, err := svc.ApproveVerification(ctx, user)
		require.Error(mt, err)
		assert.True(mt, errors.IsNotFound(err))
		assert.Contains(mt, err.Error(), "Verification record not found.")
	})
}

func TestVerificationStatus(t *testing.T) {
	mt := newMockMongo(t)
	ctx := context.Background()
	user := primitive.NewObjectID()

	mt.Run("defaults to unverified", func(mt *mtest.T) {
		svc := NewVerificationService(mt.DB, quietLogger())
		mt.AddMockResponses(cursorOf())

		status, err := svc.GetVerificationStatus(ctx, user)
		require.NoError(mt, err)
		assert.Equal(mt, models.VerificationUnverified, status)
	})

	mt.Run("pending is not verified", func(mt *mtest.T) {
		svc := NewVerificationService(mt.DB, quietLogger())
		mt.AddMockResponses(cursorOf(toDoc(mt.T, verificationRecord(user, models.VerificationPending))))

		err := svc.AssertUserVerified(ctx, user)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "User is not verified.")
	})

	mt.Run("verified", func(mt *mtest.T) {
		svc := NewVerificationService(mt.DB, quietLogger())
		mt.AddMockResponses(cursorOf(toDoc(mt.T, verificationRecord(user, models.VerificationVerified))))

		assert.NoError(mt, svc.AssertUserVerified(ctx, user))
	})
}

func TestVerificationListPending(t *testing.T) {
	mt := newMockMongo(t)
	ctx := context.Background()

	mt.Run("oldest first", func(mt *mtest.T) {
		svc := NewVerificationService(mt.DB, quietLogger())
		first := verificationRecord(primitive.NewObjectID(), models.VerificationPending)
		second := verificationRecord(primitive.NewObjectID(), models.VerificationPending)
		mt.AddMockResponses(cursorOf(toDoc(mt.T, first), toDoc(mt.T, second)))

		records, err := svc.ListPending(ctx)
		require.NoError(mt, err)
		require.Len(mt, records, 2)
		assert.Equal(mt, first.UserID, records[0].UserID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, string(models.VerificationPending), evt.Command.Lookup("filter", "status").StringValue())
		assert.Equal(mt, int64(1), evt.Command.Lookup("sort", "_id").AsInt64())
	})
}
