package handlers

import (
	"context"
	"net/http"

	"go-social/middleware"
	"go-social/models"
	"go-social/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FriendHandler struct {
	friendService *services.FriendService
	userService   *services.UserService
}

func NewFriendHandler(friendService *services.FriendService, userService *services.UserService) *FriendHandler {
	return &FriendHandler{friendService: friendService, userService: userService}
}

// GetFriends returns the usernames of the session user's friends.
func (h *FriendHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	friends, err := h.friendService.GetFriends(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	usernames, err := h.userService.IDsToUsernames(r.Context(), friends)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, usernames)
}

func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	h.withOther(w, r, "friend", h.friendService.RemoveFriend)
}

func (h *FriendHandler) GetRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	requests, err := h.friendService.GetRequests(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	ids := make([]primitive.ObjectID, 0, 2*len(requests))
	for _, req := range requests {
		ids = append(ids, req.From, req.To)
	}
	names, err := h.userService.UsernameLookup(r.Context(), ids)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	views := make([]models.FriendRequestView, len(requests))
	for i, req := range requests {
		views[i] = models.FriendRequestView{From: names[req.From], To: names[req.To], Status: req.Status}
	}
	writeJSON(w, views)
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	h.withOther(w, r, "to", h.friendService.SendRequest)
}

func (h *FriendHandler) RemoveRequest(w http.ResponseWriter, r *http.Request) {
	h.withOther(w, r, "to", h.friendService.RemoveRequest)
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.withOther(w, r, "from", func(ctx context.Context, user, from primitive.ObjectID) (models.Message, error) {
		return h.friendService.AcceptRequest(ctx, from, user)
	})
}

func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.withOther(w, r, "from", func(ctx context.Context, user, from primitive.ObjectID) (models.Message, error) {
		return h.friendService.RejectRequest(ctx, from, user)
	})
}

// withOther resolves the username in path parameter param and runs action
// with the session user and that user.
func (h *FriendHandler) withOther(w http.ResponseWriter, r *http.Request, param string, action func(ctx context.Context, user, other primitive.ObjectID) (models.Message, error)) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	other, err := userByUsername(r, h.userService, param)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := action(r.Context(), userID, other.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}
