package services

import (
	"context"
	"testing"

	"go-social/models"
	"go-social/utils/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(mt *mtest.T, admins ...string) (*UserService, *miniredis.Miniredis) {
	mr, rdb := newTestRedis(mt.T)
	svc := NewUserService(mt.DB, rdb, admins, quietLogger())
	svc.hashCost = bcrypt.MinCost
	return svc, mr
}

func storedUser(tb testing.TB, username, password string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(tb, err)
	return models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		Timestamps:   models.NewTimestamps(),
	}
}

func TestUserRegister(t *testing.T) {
	mt := newMockMongo(t)
	ctx := context.Background()

	mt.Run("creates user", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)
		mt.AddMockResponses(cursorOf(), inserted())

		user, err := svc.Register(ctx, "alice", "pw")
		require.NoError(mt, err)
		assert.Equal(mt, "alice", user.Username)
		assert.Equal(mt, models.RoleUser, user.Role)
		assert.NoError(mt, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw")))
	})

	mt.Run("bootstraps admins", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt, "root")
		mt.AddMockResponses(cursorOf(), inserted())

		user, err := svc.Register(ctx, "root", "pw")
		require.NoError(mt, err)
		assert.True(mt, user.IsAdmin())
	})

	mt.Run("rejects taken username", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)
		mt.AddMockResponses(cursorOf(toDoc(mt.T, storedUser(mt.T, "alice", "pw"))))

		_, err := svc.Register(ctx, "alice", "other")
		require.Error(mt, err)
		assert.True(mt, errors.IsNotAllowed(err))
		assert.Contains(mt, err.Error(), "User with username alice already exists!")
	})

	mt.Run("rejects concurrent duplicate", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)
		mt.AddMockResponses(cursorOf(), duplicateKey())

		_, err := svc.Register(ctx, "alice", "pw")
		assert.True(mt, errors.IsNotAllowed(err))
	})

	mt.Run("rejects empty credentials", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)

		_, err := svc.Register(ctx, "", "pw")
		assert.True(mt, errors.IsNotAllowed(err))
		_, err = svc.Register(ctx, "alice", "")
		assert.True(mt, errors.IsNotAllowed(err))
	})
}

func TestUserAuthenticate(t *testing.T) {
	mt := newMockMongo(t)
	ctx := context.Background()

	mt.Run("accepts correct password", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)
		stored := storedUser(mt.T, "alice", "pw")
		mt.AddMockResponses(cursorOf(toDoc(mt.T, stored)))

		user, err := svc.Authenticate(ctx, "alice", "pw")
		require.NoError(mt, err)
		assert.Equal(mt, stored.ID, user.ID)
	})

	mt.Run("rejects wrong password", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)
		mt.AddMockResponses(cursorOf(toDoc(mt.T, storedUser(mt.T, "alice", "pw"))))

		_, err := svc.Authenticate(ctx, "alice", "nope")
		assert.True(mt, errors.IsNotAllowed(err))
	})

	mt.Run("hides unknown users", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)
		mt.AddMockResponses(cursorOf())

		_, err := svc.Authenticate(ctx, "ghost", "pw")
		require.Error(mt, err)
		assert.True(mt, errors.IsNotAllowed(err))
		assert.Contains(mt, err.Error(), "Username or password is incorrect.")
	})
}

func TestUserGetByIDUsesCache(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("second read hits redis", func(mt *mtest.T) {
		svc, mr := newTestUserService(mt)
		ctx := context.Background()
		stored := storedUser(mt.T, "alice", "pw")
		mt.AddMockResponses(cursorOf(toDoc(mt.T, stored)))

		user, err := svc.GetUserByID(ctx, stored.ID)
		require.NoError(mt, err)
		assert.Equal(mt, "alice", user.Username)
		assert.True(mt, mr.Exists(userCacheKey(stored.ID)))

		// No mock response is queued, so this must come from the cache.
		cached, err := svc.GetUserByID(ctx, stored.ID)
		require.NoError(mt, err)
		assert.Equal(mt, stored.ID, cached.ID)
		assert.Empty(mt, cached.PasswordHash)
	})

	mt.Run("missing user", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)
		mt.AddMockResponses(cursorOf())

		_, err := svc.GetUserByID(context.Background(), primitive.NewObjectID())
		assert.True(mt, errors.IsNotFound(err))
	})
}

func TestUserUpdates(t *testing.T) {
	mt := newMockMongo(t)
	ctx := context.Background()

	mt.Run("username change invalidates cache", func(mt *mtest.T) {
		svc, mr := newTestUserService(mt)
		id := primitive.NewObjectID()
		require.NoError(mt, mr.Set(userCacheKey(id), `{"username":"old"}`))
		mt.AddMockResponses(cursorOf(), matched(1))

		msg, err := svc.UpdateUsername(ctx, id, "new")
		require.NoError(mt, err)
		assert.Equal(mt, "Updated username successfully!", msg.Msg)
		assert.False(mt, mr.Exists(userCacheKey(id)))
	})

	mt.Run("username taken", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)
		mt.AddMockResponses(cursorOf(toDoc(mt.T, storedUser(mt.T, "bob", "pw"))))

		_, err := svc.UpdateUsername(ctx, primitive.NewObjectID(), "bob")
		assert.True(mt, errors.IsNotAllowed(err))
	})

	mt.Run("password requires current password", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)
		stored := storedUser(mt.T, "alice", "pw")
		mt.AddMockResponses(cursorOf(toDoc(mt.T, stored)))

		_, err := svc.UpdatePassword(ctx, stored.ID, "wrong", "next")
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "The given current password is wrong!")
	})

	mt.Run("password updated", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)
		stored := storedUser(mt.T, "alice", "pw")
		mt.AddMockResponses(cursorOf(toDoc(mt.T, stored)), matched(1))

		msg, err := svc.UpdatePassword(ctx, stored.ID, "pw", "next")
		require.NoError(mt, err)
		assert.Equal(mt, "Updated password successfully!", msg.Msg)
	})
}

func TestUserIDsToUsernames(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("missing users are marked deleted", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)
		alice := storedUser(mt.T, "alice", "pw")
		gone := primitive.NewObjectID()
		mt.AddMockResponses(cursorOf(toDoc(mt.T, alice)))

		names, err := svc.IDsToUsernames(context.Background(), []primitive.ObjectID{gone, alice.ID})
		require.NoError(mt, err)
		assert.Equal(mt, []string{models.DeletedUsername, "alice"}, names)
	})

	mt.Run("no ids", func(mt *mtest.T) {
		svc, _ := newTestUserService(mt)

		names, err := svc.IDsToUsernames(context.Background(), nil)
		require.NoError(mt, err)
		assert.Empty(mt, names)
	})
}
