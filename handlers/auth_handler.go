package handlers

import (
	"net/http"
	"time"

	"go-social/middleware"
	"go-social/models"
	"go-social/services"
	"go-social/utils/errors"
)

type AuthHandler struct {
	userService    *services.UserService
	sessionService *services.SessionService
	cookieSecure   bool
}

func NewAuthHandler(userService *services.UserService, sessionService *services.SessionService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		userService:    userService,
		sessionService: sessionService,
		cookieSecure:   cookieSecure,
	}
}

func (h *AuthHandler) GetSessionUser(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	user, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, user)
}

func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	user, err := h.userService.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	token, err := h.sessionService.Start(r.Context(), user.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	h.setSessionCookie(w, token, h.sessionService.TTL())
	writeJSON(w, map[string]string{"msg": "Logged in!", "token": token})
}

func (h *AuthHandler) LogoutUser(w http.ResponseWriter, r *http.Request) {
	if err := h.endSession(w, r); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, models.Message{Msg: "Logged out!"})
}

func (h *AuthHandler) endSession(w http.ResponseWriter, r *http.Request) error {
	if err := h.sessionService.End(r.Context(), middleware.SessionToken(r.Context())); err != nil {
		return errors.Wrap(err, "SESSION_ERROR", "Failed to end session", errors.ErrInternal.Status)
	}
	h.setSessionCookie(w, "", -1)
	return nil
}

// setSessionCookie sets the session cookie; a negative ttl deletes it.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, cookie)
}
