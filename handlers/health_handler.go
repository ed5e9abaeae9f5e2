package handlers

import (
	"context"
	"net/http"
	"time"

	"go-social/middleware"
	"go-social/utils/errors"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type HealthHandler struct {
	mongoClient *mongo.Client
	redisClient *redis.Client
}

func NewHealthHandler(mongoClient *mongo.Client, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{mongoClient: mongoClient, redisClient: redisClient}
}

// Health pings MongoDB and Redis.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.mongoClient.Ping(ctx, nil); err != nil {
		middleware.WriteError(w, errors.Wrap(err, "UNHEALTHY", "mongodb unreachable", http.StatusServiceUnavailable))
		return
	}
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		middleware.WriteError(w, errors.Wrap(err, "UNHEALTHY", "redis unreachable", http.StatusServiceUnavailable))
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
