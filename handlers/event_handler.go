package handlers

import (
	"net/http"

	"go-social/middleware"
	"go-social/services"
	"go-social/utils/errors"
)

// EventHandler lets users join posts as events.
type EventHandler struct {
	participationService *services.ParticipationService
	postService          *services.PostService
	userService          *services.UserService
}

func NewEventHandler(participationService *services.ParticipationService, postService *services.PostService, userService *services.UserService) *EventHandler {
	return &EventHandler{
		participationService: participationService,
		postService:          postService,
		userService:          userService,
	}
}

func (h *EventHandler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	eventID, err := pathObjectID(r, "id")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if _, err := h.postService.GetByID(r.Context(), eventID); err != nil {
		if errors.IsNotFound(err) {
			err = errors.NotFound("Event not found.")
		}
		middleware.WriteError(w, err)
		return
	}
	msg, err := h.participationService.JoinActivity(r.Context(), userID, eventID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

func (h *EventHandler) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	eventID, err := pathObjectID(r, "id")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := h.participationService.LeaveActivity(r.Context(), userID, eventID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

// GetParticipants returns the usernames of everyone who joined the event.
func (h *EventHandler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathObjectID(r, "id")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	ids, err := h.participationService.GetParticipants(r.Context(), eventID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	usernames, err := h.userService.IDsToUsernames(r.Context(), ids)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, map[string]any{"participants": usernames})
}

// GetUserEvents returns the events a user joined that still exist.
func (h *EventHandler) GetUserEvents(w http.ResponseWriter, r *http.Request) {
	user, err := userByUsername(r, h.userService, "username")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	ids, err := h.participationService.GetActivitiesForUser(r.Context(), user.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	posts, err := h.postService.GetByIDs(r.Context(), ids)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	views, err := postViews(r.Context(), h.userService, posts)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, views)
}
