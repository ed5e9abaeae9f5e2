package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-social/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func verificationOf(user primitive.ObjectID, status models.VerificationStatus) models.Verification {
	return models.Verification{
		ID:               primitive.NewObjectID(),
		UserID:           user,
		VerificationData: models.VerificationData{Method: models.MethodGovernmentID, Data: "passport 123"},
		Status:           status,
		Timestamps:       models.NewTimestamps(),
	}
}

func TestSubmitVerification(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("server picks the method", func(mt *mtest.T) {
		env := newTestEnv(mt)
		h := NewVerificationHandler(env.verifications, env.users)
		mt.AddMockResponses(cursorOf(), inserted())

		rec := httptest.NewRecorder()
		h.SubmitVerification(rec, newRequest(mt.T, http.MethodPost, "/api/verifications", map[string]string{"data": "passport 123"}, nil, primitive.NewObjectID()))

		require.Equal(mt, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(mt, `{"msg":"Verification submitted successfully."}`, rec.Body.String())

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		require.Equal(mt, "insert", events[1].CommandName)
		docs, err := events[1].Command.Lookup("documents").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, docs, 1)
		stored := docs[0].Document().Lookup("verification_data")
		assert.Equal(mt, models.MethodGovernmentID, stored.Document().Lookup("method").StringValue())
		assert.Equal(mt, "passport 123", stored.Document().Lookup("data").StringValue())
	})

	mt.Run("client method is ignored", func(mt *mtest.T) {
		env := newTestEnv(mt)
		h := NewVerificationHandler(env.verifications, env.users)
		mt.AddMockResponses(cursorOf(), inserted())

		body := map[string]string{"method": "selfie", "data": "passport 123"}
		rec := httptest.NewRecorder()
		h.SubmitVerification(rec, newRequest(mt.T, http.MethodPost, "/api/verifications", body, nil, primitive.NewObjectID()))

		assert.Equal(mt, http.StatusOK, rec.Code, rec.Body.String())
	})

	mt.Run("empty data", func(mt *mtest.T) {
		env := newTestEnv(mt)
		h := NewVerificationHandler(env.verifications, env.users)

		rec := httptest.NewRecorder()
		h.SubmitVerification(rec, newRequest(mt.T, http.MethodPost, "/api/verifications", map[string]string{"data": "  "}, nil, primitive.NewObjectID()))

		assert.Equal(mt, http.StatusForbidden, rec.Code)
		assert.Contains(mt, rec.Body.String(), "Verification data must be non-empty.")
	})

	mt.Run("already pending", func(mt *mtest.T) {
		env := newTestEnv(mt)
		h := NewVerificationHandler(env.verifications, env.users)
		user := primitive.NewObjectID()
		mt.AddMockResponses(cursorOf(toDoc(mt.T, verificationOf(user, models.VerificationPending))))

		rec := httptest.NewRecorder()
		h.SubmitVerification(rec, newRequest(mt.T, http.MethodPost, "/api/verifications", map[string]string{"data": "passport 123"}, nil, user))

		assert.Equal(mt, http.StatusForbidden, rec.Code)
		assert.Contains(mt, rec.Body.String(), "Verification already submitted or approved.")
	})
}

func TestVerificationStatusHandler(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("unverified without record", func(mt *mtest.T) {
		env := newTestEnv(mt)
		h := NewVerificationHandler(env.verifications, env.users)
		mt.AddMockResponses(cursorOf())

		rec := httptest.NewRecorder()
		h.GetStatus(rec, newRequest(mt.T, http.MethodGet, "/api/verifications/status", nil, nil, primitive.NewObjectID()))

		require.Equal(mt, http.StatusOK, rec.Code)
		assert.JSONEq(mt, `{"status":"unverified"}`, rec.Body.String())
	})

	mt.Run("requires a session", func(mt *mtest.T) {
		env := newTestEnv(mt)
		h := NewVerificationHandler(env.verifications, env.users)

		rec := httptest.NewRecorder()
		h.GetStatus(rec, newRequest(mt.T, http.MethodGet, "/api/verifications/status", nil, nil, primitive.NilObjectID))

		assert.Equal(mt, http.StatusUnauthorized, rec.Code)
	})
}

func TestReviewVerifications(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("pending list shows usernames", func(mt *mtest.T) {
		env := newTestEnv(mt)
		h := NewVerificationHandler(env.verifications, env.users)
		alice := testUser(mt.T, "alice", "pw")
		mt.AddMockResponses(
			cursorOf(toDoc(mt.T, verificationOf(alice.ID, models.VerificationPending))),
			cursorOf(toDoc(mt.T, alice)),
		)

		rec := httptest.NewRecorder()
		h.ListPending(rec, newRequest(mt.T, http.MethodGet, "/api/verifications/pending", nil, nil, primitive.NewObjectID()))

		require.Equal(mt, http.StatusOK, rec.Code, rec.Body.String())
		var pending []pendingVerification
		decodeBody(mt.T, rec, &pending)
		require.Len(mt, pending, 1)
		assert.Equal(mt, alice.ID.Hex(), pending[0].UserID)
		assert.Equal(mt, "alice", pending[0].Username)
		assert.Equal(mt, "passport 123", pending[0].Data.Data)
	})

	mt.Run("approve", func(mt *mtest.T) {
		env := newTestEnv(mt)
		h := NewVerificationHandler(env.verifications, env.users)
		user := primitive.NewObjectID()
		mt.AddMockResponses(cursorOf(toDoc(mt.T, verificationOf(user, models.VerificationPending))), matched(1))

		rec := httptest.NewRecorder()
		h.Approve(rec, newRequest(mt.T, http.MethodPut, "/api/verifications/"+user.Hex()+"/approve", nil, map[string]string{"userID": user.Hex()}, primitive.NewObjectID()))

		require.Equal(mt, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(mt, `{"msg":"Verification approved successfully."}`, rec.Body.String())
	})

	mt.Run("reject", func(mt *mtest.T) {
		env := newTestEnv(mt)
		h := NewVerificationHandler(env.verifications, env.users)
		user := primitive.NewObjectID()
		mt.AddMockResponses(cursorOf(toDoc(mt.T, verificationOf(user, models.VerificationPending))), matched(1))

		rec := httptest.NewRecorder()
		h.Reject(rec, newRequest(mt.T, http.MethodPut, "/api/verifications/"+user.Hex()+"/reject", nil, map[string]string{"userID": user.Hex()}, primitive.NewObjectID()))

		require.Equal(mt, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(mt, `{"msg":"Verification rejected."}`, rec.Body.String())
	})

	mt.Run("approve without record", func(mt *mtest.T) {
		env := newTestEnv(mt)
		h := NewVerificationHandler(env.verifications, env.users)
		user := primitive.NewObjectID()
		mt.AddMockResponses(cursorOf())

		rec := httptest.NewRecorder()
		h.Approve(rec, newRequest(mt.T, http.MethodPut, "/api/verifications/"+user.Hex()+"/approve", nil, map[string]string{"userID": user.Hex()}, primitive.NewObjectID()))

		assert.Equal(mt, http.StatusNotFound, rec.Code)
		assert.Contains(mt, rec.Body.String(), "Verification record not found.")
	})

	mt.Run("bad user id", func(mt *mtest.T) {
		env := newTestEnv(mt)
		h := NewVerificationHandler(env.verifications, env.users)

		rec := httptest.NewRecorder()
		h.Reject(rec, newRequest(mt.T, http.MethodPut, "/api/verifications/nope/reject", nil, map[string]string{"userID": "nope"}, primitive.NewObjectID()))

		assert.Equal(mt, http.StatusBadRequest, rec.Code)
	})
}
