package handlers

import (
	"net/http"
	"time"

	"go-social/middleware"
	"go-social/models"
	"go-social/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VerificationHandler struct {
	verificationService *services.VerificationService
	userService         *services.UserService
}

func NewVerificationHandler(verificationService *services.VerificationService, userService *services.UserService) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService, userService: userService}
}

func (h *VerificationHandler) SubmitVerification(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var input struct {
		Data string `json:"data"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	data := models.VerificationData{Method: models.MethodGovernmentID, Data: input.Data}
	msg, err := h.verificationService.SubmitVerification(r.Context(), userID, data)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

func (h *VerificationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	status, err := h.verificationService.GetVerificationStatus(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, map[string]models.VerificationStatus{"status": status})
}

// pendingVerification is a pending record as shown to reviewers.
type pendingVerification struct {
	UserID      string                  `json:"userID"`
	Username    string                  `json:"username"`
	Data        models.VerificationData `json:"verificationData"`
	DateCreated time.Time               `json:"dateCreated"`
}

func (h *VerificationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	records, err := h.verificationService.ListPending(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	ids := make([]primitive.ObjectID, len(records))
	for i, rec := range records {
		ids[i] = rec.UserID
	}
	names, err := h.userService.UsernameLookup(r.Context(), ids)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	pending := make([]pendingVerification, len(records))
	for i, rec := range records {
		pending[i] = pendingVerification{
			UserID:      rec.UserID.Hex(),
			Username:    names[rec.UserID],
			Data:        rec.VerificationData,
			DateCreated: rec.DateCreated,
		}
	}
	writeJSON(w, pending)
}

func (h *VerificationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	userID, err := pathObjectID(r, "userID")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := h.verificationService.ApproveVerification(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

func (h *VerificationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	userID, err := pathObjectID(r, "userID")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := h.verificationService.RejectVerification(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}
