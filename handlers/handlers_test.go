package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-social/middleware"
	"go-social/models"
	"go-social/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	mr            *miniredis.Miniredis
	rdb           *redis.Client
	users         *services.UserService
	sessions      *services.SessionService
	posts         *services.PostService
	friends       *services.FriendService
	verifications *services.VerificationService
	participation *services.ParticipationService
	endorsements  *services.EndorsementService
	locations     *services.LocationService
}

func newTestEnv(mt *mtest.T) *testEnv {
	mr := miniredis.RunT(mt.T)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mt.Cleanup(func() { _ = rdb.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &testEnv{
		mr:            mr,
		rdb:           rdb,
		users:         services.NewUserService(mt.DB, rdb, nil, logger),
		sessions:      services.NewSessionService(rdb, "test-secret", time.Hour),
		posts:         services.NewPostService(mt.DB, logger),
		friends:       services.NewFriendService(mt.DB, logger),
		verifications: services.NewVerificationService(mt.DB, logger),
		participation: services.NewParticipationService(mt.DB, logger),
		endorsements:  services.NewEndorsementService(mt.DB, logger),
		locations:     services.NewLocationService(mt.DB, rdb, logger),
	}
}

func newMockMongo(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func toDoc(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func cursorOf(docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, "social_db.test", mtest.FirstBatch, docs...)
}

func testUser(t *testing.T, username, password string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		Timestamps:   models.NewTimestamps(),
	}
}

// newRequest builds a request with an optional JSON body, path variables and session user.
func newRequest(t *testing.T, method, target string, body any, vars map[string]string, user primitive.ObjectID) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	if !user.IsZero() {
		req = req.WithContext(middleware.WithSession(req.Context(), user, "test-token"))
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func inserted() bson.D {
	return mtest.CreateSuccessResponse()
}

func matched(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}
