package services

import (
	"context"
	"fmt"
	"time"

	"go-social/utils/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionService issues and revokes login sessions. A session is a signed
// JWT whose jti must still be registered in Redis.
type SessionService struct {
	redisClient *redis.Client
	jwtSecret   []byte
	ttl         time.Duration
}

func NewSessionService(redisClient *redis.Client, jwtSecret string, ttl time.Duration) *SessionService {
	return &SessionService{
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
		ttl:         ttl,
	}
}

// TTL is how long a started session stays valid.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Start opens a session for the user and returns its token.
func (s *SessionService) Start(ctx context.Context, userID primitive.ObjectID) (string, error) {
	jti := uuid.New().String()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.Wrap(err, "JWT_ERROR", "Failed to generate token", errors.ErrInternal.Status)
	}

	if err := s.redisClient.Set(ctx, sessionKey(jti), userID.Hex(), s.ttl).Err(); err != nil {
		return "", errors.Wrap(err, "SESSION_ERROR", "Failed to store session", errors.ErrInternal.Status)
	}
	return tokenString, nil
}

// Resolve returns the user of a live session.
func (s *SessionService) Resolve(ctx context.Context, tokenString string) (primitive.ObjectID, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return primitive.NilObjectID, errors.Unauthenticated("Must be logged in!")
	}

	stored, err := s.redisClient.Get(ctx, sessionKey(claims.ID)).Result()
	if err == redis.Nil {
		return primitive.NilObjectID, errors.Unauthenticated("Must be logged in!")
	}
	if err != nil {
		return primitive.NilObjectID, errors.Wrap(err, "SESSION_ERROR", "Failed to read session", errors.ErrInternal.Status)
	}
	if stored != claims.Subject {
		return primitive.NilObjectID, errors.Unauthenticated("Must be logged in!")
	}

	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, errors.Unauthenticated("Must be logged in!")
	}
	return userID, nil
}

// End revokes the session. Ending an unknown or invalid session is a no-op.
func (s *SessionService) End(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil
	}
	if err := s.redisClient.Del(ctx, sessionKey(claims.ID)).Err(); err != nil {
		return errors.Wrap(err, "SESSION_ERROR", "Failed to end session", errors.ErrInternal.Status)
	}
	return nil
}

func (s *SessionService) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func sessionKey(jti string) string {
	return "session:" + jti
}
