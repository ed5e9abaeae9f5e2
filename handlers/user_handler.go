package handlers

import (
	"net/http"

	"go-social/middleware"
	"go-social/models"
	"go-social/services"
	"go-social/utils/errors"
)

type UserHandler struct {
	userService *services.UserService
	auth        *AuthHandler
}

func NewUserHandler(userService *services.UserService, auth *AuthHandler) *UserHandler {
	return &UserHandler{userService: userService, auth: auth}
}

func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetUsers(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	username, err := pathParam(r, "username")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	user, err := h.userService.GetUserByUsername(r.Context(), username)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, user)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	user, err := h.userService.Register(r.Context(), input.Username, input.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, map[string]any{"msg": "User created successfully!", "user": user})
}

func (h *UserHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var input struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := h.userService.UpdateUsername(r.Context(), userID, input.Username)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := h.userService.UpdatePassword(r.Context(), userID, input.CurrentPassword, input.NewPassword)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

// DeleteUser removes the account and ends the current session.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.auth.endSession(w, r); err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := h.userService.Delete(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

// userByUsername resolves a username path parameter to a user.
func userByUsername(r *http.Request, users *services.UserService, param string) (models.User, error) {
	username, err := pathParam(r, param)
	if err != nil {
		return models.User{}, err
	}
	user, err := users.GetUserByUsername(r.Context(), username)
	if errors.IsNotFound(err) {
		return models.User{}, errors.NotFound("User %s not found!", username)
	}
	return user, err
}
