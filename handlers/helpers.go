package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"go-social/middleware"
	"go-social/utils/errors"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// decodeJSON decodes the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return errors.ErrInvalidInput
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	middleware.WriteJSON(w, http.StatusOK, v)
}

// sessionUser returns the logged-in user. Routes using it are wrapped in RequireSession.
func sessionUser(r *http.Request) (primitive.ObjectID, error) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		return primitive.NilObjectID, errors.Unauthenticated("Must be logged in!")
	}
	return userID, nil
}

func pathObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, errors.InvalidInput("invalid %s", name)
	}
	return id, nil
}

func pathParam(r *http.Request, name string) (string, error) {
	value := mux.Vars(r)[name]
	if value == "" {
		return "", errors.InvalidInput("missing %s", name)
	}
	return value, nil
}
