package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"go-social/middleware"
	"go-social/models"
	"go-social/services"
)

type EndorsementHandler struct {
	endorsementService *services.EndorsementService
	userService        *services.UserService
}

func NewEndorsementHandler(endorsementService *services.EndorsementService, userService *services.UserService) *EndorsementHandler {
	return &EndorsementHandler{endorsementService: endorsementService, userService: userService}
}

// skillFromRequest reads the skill from the JSON body, falling back to ?skill=.
func skillFromRequest(r *http.Request) (string, error) {
	var input struct {
		Skill string `json:"skill"`
	}
	if err := decodeJSON(r, &input); err != nil {
		return "", err
	}
	if input.Skill == "" {
		input.Skill = r.URL.Query().Get("skill")
	}
	return strings.TrimSpace(input.Skill), nil
}

func (h *EndorsementHandler) Endorse(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	endorsed, err := userByUsername(r, h.userService, "username")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skill, err := skillFromRequest(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if _, err := h.endorsementService.EndorseUser(r.Context(), userID, endorsed.ID, skill); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, models.Message{Msg: fmt.Sprintf("Successfully endorsed %s for %s.", endorsed.Username, skill)})
}

func (h *EndorsementHandler) RemoveEndorsement(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	endorsed, err := userByUsername(r, h.userService, "username")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skill, err := skillFromRequest(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if _, err := h.endorsementService.RemoveEndorsement(r.Context(), userID, endorsed.ID, skill); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, models.Message{Msg: fmt.Sprintf("Removed endorsement of %s for %s.", endorsed.Username, skill)})
}

// GetEndorsements returns the skill counts a user received.
func (h *EndorsementHandler) GetEndorsements(w http.ResponseWriter, r *http.Request) {
	user, err := userByUsername(r, h.userService, "username")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skills, err := h.endorsementService.GetEndorsedSkills(r.Context(), user.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, map[string]any{"username": user.Username, "skills": skills})
}
