package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go-social/middleware"
	"go-social/models"
	"go-social/services"
	"go-social/utils/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultNearbyRadiusKm = 3.0

type LocationHandler struct {
	locationService *services.LocationService
	userService     *services.UserService
}

func NewLocationHandler(locationService *services.LocationService, userService *services.UserService) *LocationHandler {
	return &LocationHandler{locationService: locationService, userService: userService}
}

// locationView is a shared location with the owner's username.
type locationView struct {
	Username string `json:"username"`
	models.Location
}

func (h *LocationHandler) ShareLocation(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var input struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if input.Latitude == nil || input.Longitude == nil {
		middleware.WriteError(w, errors.InvalidInput("latitude and longitude are required"))
		return
	}
	msg, err := h.locationService.ShareLocation(r.Context(), userID, *input.Latitude, *input.Longitude)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

func (h *LocationHandler) StopSharing(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.locationService.StopSharingLocation)
}

func (h *LocationHandler) EnableSharing(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.locationService.EnableLocationSharing)
}

func (h *LocationHandler) DisableSharing(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.locationService.DisableLocationSharing)
}

// GetUserLocation shows a user's location to the user and their trusted contacts.
func (h *LocationHandler) GetUserLocation(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	owner, err := userByUsername(r, h.userService, "username")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	allowed, err := h.locationService.CanView(r.Context(), userID, owner.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if !allowed {
		middleware.WriteError(w, errors.NotAllowed("You are not a trusted contact of %s.", owner.Username))
		return
	}
	location, err := h.locationService.GetLocation(r.Context(), owner.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, locationView{Username: owner.Username, Location: location})
}

func (h *LocationHandler) AddTrustedContact(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var input struct {
		ContactUsername string `json:"contactUsername"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if input.ContactUsername == "" {
		middleware.WriteError(w, errors.InvalidInput("contactUsername is required"))
		return
	}
	contact, err := h.userService.GetUserByUsername(r.Context(), input.ContactUsername)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := h.locationService.AddTrustedContact(r.Context(), userID, contact.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

func (h *LocationHandler) RemoveTrustedContact(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	contact, err := userByUsername(r, h.userService, "contactUsername")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := h.locationService.RemoveTrustedContact(r.Context(), userID, contact.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

func (h *LocationHandler) GetTrustedContacts(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	ids, err := h.locationService.GetTrustedContacts(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	usernames, err := h.userService.IDsToUsernames(r.Context(), ids)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, map[string][]string{"contacts": usernames})
}

func (h *LocationHandler) GetSharingStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	enabled, err := h.locationService.GetSharingStatus(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"enabled": enabled})
}

// GetTrustedContactsLocations returns the locations of the session user's
// trusted contacts.
func (h *LocationHandler) GetTrustedContactsLocations(w http.ResponseWriter, r *http.Request) {
	h.writeLocations(w, r, h.locationService.GetTrustedContactsLocations)
}

// GetSharedWithMe returns the locations of users who trust the session user.
func (h *LocationHandler) GetSharedWithMe(w http.ResponseWriter, r *http.Request) {
	h.writeLocations(w, r, h.locationService.GetSharedWithMe)
}

func (h *LocationHandler) writeLocations(w http.ResponseWriter, r *http.Request, read func(ctx context.Context, user primitive.ObjectID) ([]models.Location, error)) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	locations, err := read(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	ids := make([]primitive.ObjectID, len(locations))
	for i, loc := range locations {
		ids[i] = loc.UserID
	}
	names, err := h.userService.UsernameLookup(r.Context(), ids)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	views := make([]locationView, len(locations))
	for i, loc := range locations {
		views[i] = locationView{Username: names[loc.UserID], Location: loc}
	}
	writeJSON(w, map[string][]locationView{"locations": views})
}

// GetNearbyContacts lists sharing contacts within ?radius= km (default 3).
func (h *LocationHandler) GetNearbyContacts(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	radius := defaultNearbyRadiusKm
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			middleware.WriteError(w, errors.InvalidInput("invalid radius %q", raw))
			return
		}
	}

	nearby, err := h.locationService.GetNearbyContacts(r.Context(), userID, radius)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(nearby))
	for _, c := range nearby {
		if id, err := primitive.ObjectIDFromHex(c.UserID); err == nil {
			ids = append(ids, id)
		}
	}
	names, err := h.userService.UsernameLookup(r.Context(), ids)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	for i := range nearby {
		if id, err := primitive.ObjectIDFromHex(nearby[i].UserID); err == nil {
			nearby[i].Username = names[id]
		}
	}
	writeJSON(w, nearby)
}

func (h *LocationHandler) sessionAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, user primitive.ObjectID) (models.Message, error)) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := action(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}
