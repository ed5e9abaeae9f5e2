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

func TestEndorseUser(t *testing.T) {
	mt := newMockMongo(t)
	ctx := context.Background()
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("endorses", func(mt *mtest.T) {
		svc := NewEndorsementService(mt.DB, quietLogger())
		mt.AddMockResponses(inserted())

		_, err := svc.EndorseUser(ctx, alice, bob, " Go ")
		assert.NoError(mt, err)
	})

	mt.Run("not yourself", func(mt *mtest.T) {
		svc := NewEndorsementService(mt.DB, quietLogger())

		_, err := svc.EndorseUser(ctx, alice, alice, "Go")
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "You cannot endorse yourself.")
	})

	mt.Run("blank skill", func(mt *mtest.T) {
		svc := NewEndorsementService(mt.DB, quietLogger())

		_, err := svc.EndorseUser(ctx, alice, bob, "  ")
		assert.True(mt, errors.IsNotAllowed(err))
	})

	mt.Run("duplicate", func(mt *mtest.T) {
		svc := NewEndorsementService(mt.DB, quietLogger())
		mt.AddMockResponses(duplicateKey())

		_, err := svc.EndorseUser(ctx, alice, bob, "Go")
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "You have already endorsed this user for Go.")
	})

	mt.Run("remove missing", func(mt *mtest.T) {
		svc := NewEndorsementService(mt.DB, quietLogger())
		mt.AddMockResponses(matched(0))

		_, err := svc.RemoveEndorsement(ctx, alice, bob, "Go")
		assert.True(mt, errors.IsNotFound(err))
	})
}

func TestEndorsedSkills(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("counts per skill", func(mt *mtest.T) {
		svc := NewEndorsementService(mt.DB, quietLogger())
		bob := primitive.NewObjectID()
		endorsement := func(skill string) models.Endorsement {
			return models.Endorsement{ID: primitive.NewObjectID(), EndorserID: primitive.NewObjectID(), EndorsedID: bob, Skill: skill}
		}
		mt.AddMockResponses(cursorOf(
			toDoc(mt.T, endorsement("Go")),
			toDoc(mt.T, endorsement("Go")),
			toDoc(mt.T, endorsement("SQL")),
		))

		skills, err := svc.GetEndorsedSkills(context.Background(), bob)
		require.NoError(mt, err)
		assert.Equal(mt, map[string]int{"Go": 2, "SQL": 1}, skills)
	})
}
