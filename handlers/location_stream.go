package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go-social/middleware"
	"go-social/models"
	"go-social/services"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const streamWriteTimeout = 5 * time.Second

// LocationStreamHandler pushes live location updates of the users sharing
// with the session user over a websocket.
type LocationStreamHandler struct {
	locationService *services.LocationService
	userService     *services.UserService
	originPatterns  []string
	log             logrus.FieldLogger
}

func NewLocationStreamHandler(locationService *services.LocationService, userService *services.UserService, originPatterns []string, logger logrus.FieldLogger) *LocationStreamHandler {
	return &LocationStreamHandler{
		locationService: locationService,
		userService:     userService,
		originPatterns:  originPatterns,
		log:             logger,
	}
}

func (h *LocationStreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	sharers, err := h.locationService.SharersOf(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	names, err := h.userService.UsernameLookup(r.Context(), sharers)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	usernames := make(map[string]string, len(names))
	for id, name := range names {
		usernames[id.Hex()] = name
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.log.WithError(err).Warn("websocket accept error")
		return
	}
	defer c.Close(websocket.StatusInternalError, "stream finished")

	log := h.log.WithField("user_id", userID.Hex())
	if len(sharers) == 0 {
		c.Close(websocket.StatusNormalClosure, "nobody is sharing with you")
		return
	}

	// Clients only listen; CloseRead cancels ctx once the peer goes away.
	ctx := c.CloseRead(r.Context())
	pubsub := h.locationService.Subscribe(ctx, sharers)
	defer pubsub.Close()

	log.WithField("sharers", len(sharers)).Info("Location stream opened")
	err = h.forward(ctx, c, pubsub.Channel(), usernames)
	log.WithError(err).Info("Location stream closed")
}

func (h *LocationStreamHandler) forward(ctx context.Context, c *websocket.Conn, messages <-chan *redis.Message, usernames map[string]string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var update models.LocationUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				h.log.WithError(err).Warn("Dropping malformed location update")
				continue
			}
			update.Username = usernames[update.UserID]

			writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
			err := wsjson.Write(writeCtx, c, update)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
