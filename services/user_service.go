package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go-social/models"
	"go-social/utils/errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const userCacheTTL = 24 * time.Hour

// UserService manages accounts: credentials, usernames and roles.
type UserService struct {
	collection  *mongo.Collection
	redisClient *redis.Client
	admins      map[string]bool
	hashCost    int
	log         logrus.FieldLogger
}

func NewUserService(db *mongo.Database, redisClient *redis.Client, adminUsernames []string, logger logrus.FieldLogger) *UserService {
	admins := make(map[string]bool, len(adminUsernames))
	for _, name := range adminUsernames {
		if name = strings.TrimSpace(name); name != "" {
			admins[name] = true
		}
	}
	return &UserService{
		collection:  db.Collection("users"),
		redisClient: redisClient,
		admins:      admins,
		hashCost:    bcrypt.DefaultCost,
		log:         logger,
	}
}

func (s *UserService) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, s.collection, uniqueIndex(bson.D{{Key: "username", Value: 1}}))
}

// Register creates a new user with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, username, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, errors.NotAllowed("Username and password must be non-empty!")
	}
	if err := s.assertUsernameUnique(ctx, username); err != nil {
		return models.User{}, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "HASH_ERROR", "failed to hash password", errors.ErrInternal.Status)
	}

	role := models.RoleUser
	if s.admins[username] {
		role = models.RoleAdmin
	}
	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		PasswordHash: string(passwordHash),
		Role:         role,
		Timestamps:   models.NewTimestamps(),
	}
	if _, err := s.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, errors.NotAllowed("User with username %s already exists!", username)
		}
		return models.User{}, errors.DB(err, "failed to create user in database")
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "username": username, "role": role}).Info("User created")
	return user, nil
}

// GetUserByID retrieves a user from Redis or MongoDB.
func (s *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User

	userJSON, err := s.redisClient.Get(ctx, userCacheKey(id)).Result()
	if err == nil {
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			s.log.WithError(err).WithField("user_id", id.Hex()).Warn("Failed to unmarshal cached user")
		} else {
			return user, nil
		}
	}

	user, err = s.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.User{}, err
	}
	s.cacheUser(ctx, user)
	return user, nil
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

// GetUsers lists users newest first, or the user with the exact username when given.
func (s *UserService) GetUsers(ctx context.Context, username string) ([]models.User, error) {
	filter := bson.M{}
	if username != "" {
		filter["username"] = username
	}
	users, err := findAll[models.User](ctx, s.collection, filter, newestFirst())
	if err != nil {
		return nil, errors.DB(err, "failed to read users")
	}
	return users, nil
}

// Authenticate checks the credentials and returns the matching user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.findOne(ctx, bson.M{"username": username})
	if err != nil {
		if errors.IsNotFound(err) {
			return models.User{}, errors.NotAllowed("Username or password is incorrect.")
		}
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errors.NotAllowed("Username or password is incorrect.")
	}
	return user, nil
}

func (s *UserService) UpdateUsername(ctx context.Context, id primitive.ObjectID, username string) (models.Message, error) {
	if username == "" {
		return models.Message{}, errors.NotAllowed("Username must be non-empty!")
	}
	if err := s.assertUsernameUnique(ctx, username); err != nil {
		return models.Message{}, err
	}
	if err := s.update(ctx, id, bson.M{"username": username}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Message{}, errors.NotAllowed("User with username %s already exists!", username)
		}
		return models.Message{}, err
	}
	return models.Message{Msg: "Updated username successfully!"}, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, id primitive.ObjectID, currentPassword, newPassword string) (models.Message, error) {
	if newPassword == "" {
		return models.Message{}, errors.NotAllowed("Password must be non-empty!")
	}
	user, err := s.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.Message{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return models.Message{}, errors.NotAllowed("The given current password is wrong!")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return models.Message{}, errors.Wrap(err, "HASH_ERROR", "failed to hash password", errors.ErrInternal.Status)
	}
	if err := s.update(ctx, id, bson.M{"password_hash": string(passwordHash)}); err != nil {
		return models.Message{}, err
	}
	return models.Message{Msg: "Updated password successfully!"}, nil
}

func (s *UserService) Delete(ctx context.Context, id primitive.ObjectID) (models.Message, error) {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return models.Message{}, errors.DB(err, "failed to delete user")
	}
	s.invalidate(ctx, id)
	s.log.WithField("user_id", id.Hex()).Info("User deleted")
	return models.Message{Msg: "User deleted!"}, nil
}

// IDsToUsernames maps ids to usernames in order. Ids with no user map to DeletedUsername.
func (s *UserService) IDsToUsernames(ctx context.Context, ids []primitive.ObjectID) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	users, err := findAll[models.User](ctx, s.collection, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.DB(err, "failed to read users")
	}

	byID := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Username
	}
	usernames := make([]string, len(ids))
	for i, id := range ids {
		name, ok := byID[id]
		if !ok {
			name = models.DeletedUsername
		}
		usernames[i] = name
	}
	return usernames, nil
}

// UsernameLookup resolves ids to usernames as a map, for response shaping.
func (s *UserService) UsernameLookup(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names, err := s.IDsToUsernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	lookup := make(map[primitive.ObjectID]string, len(ids))
	for i, id := range ids {
		lookup[id] = names[i]
	}
	return lookup, nil
}

func (s *UserService) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, errors.NotFound("User not found!")
	}
	if err != nil {
		return models.User{}, errors.DB(err, "failed to read user")
	}
	return user, nil
}

func (s *UserService) assertUsernameUnique(ctx context.Context, username string) error {
	_, err := s.findOne(ctx, bson.M{"username": username})
	if err == nil {
		return errors.NotAllowed("User with username %s already exists!", username)
	}
	if errors.IsNotFound(err) {
		return nil
	}
	return err
}

func (s *UserService) update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["date_updated"] = time.Now().UTC()
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return errors.DB(err, "failed to update user")
	}
	if result.MatchedCount == 0 {
		return errors.NotFound("User not found!")
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *UserService) cacheUser(ctx context.Context, user models.User) {
	userJSON, err := json.Marshal(user)
	if err != nil {
		s.log.WithError(err).Warn("Failed to marshal user for cache")
		return
	}
	if err := s.redisClient.Set(ctx, userCacheKey(user.ID), userJSON, userCacheTTL).Err(); err != nil {
		s.log.WithError(err).Warn("Failed to cache user")
	}
}

func (s *UserService) invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := s.redisClient.Del(ctx, userCacheKey(id)).Err(); err != nil {
		s.log.WithError(err).WithField("user_id", id.Hex()).Warn("Failed to invalidate cached user")
	}
}

func userCacheKey(id primitive.ObjectID) string {
	return "user:" + id.Hex()
}
