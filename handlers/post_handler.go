package handlers

import (
	"context"
	"net/http"

	"go-social/middleware"
	"go-social/models"
	"go-social/services"
	"go-social/utils/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostHandler struct {
	postService         *services.PostService
	userService         *services.UserService
	verificationService *services.VerificationService
}

func NewPostHandler(postService *services.PostService, userService *services.UserService, verificationService *services.VerificationService) *PostHandler {
	return &PostHandler{
		postService:         postService,
		userService:         userService,
		verificationService: verificationService,
	}
}

// GetPosts lists all posts, or only those of ?author=, newest first.
func (h *PostHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	var (
		posts []models.Post
		err   error
	)
	if author := r.URL.Query().Get("author"); author != "" {
		user, lookupErr := h.userService.GetUserByUsername(r.Context(), author)
		if lookupErr != nil {
			middleware.WriteError(w, lookupErr)
			return
		}
		posts, err = h.postService.GetByAuthor(r.Context(), user.ID)
	} else {
		posts, err = h.postService.GetPosts(r.Context())
	}
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

type postInput struct {
	Content *string             `json:"content"`
	Options *models.PostOptions `json:"options"`
}

// CreatePost is open to verified users only.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var input postInput
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.verificationService.AssertUserVerified(r.Context(), userID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	content := ""
	if input.Content != nil {
		content = *input.Content
	}
	post, err := h.postService.Create(r.Context(), userID, content, input.Options)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	views, err := postViews(r.Context(), h.userService, []models.Post{post})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, map[string]any{"msg": "Post successfully created!", "post": views[0]})
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	postID, err := pathObjectID(r, "id")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var input postInput
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.postService.AssertAuthorIsUser(r.Context(), postID, userID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := h.postService.Update(r.Context(), postID, input.Content, input.Options)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	postID, err := pathObjectID(r, "id")
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.postService.AssertAuthorIsUser(r.Context(), postID, userID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	msg, err := h.postService.Delete(r.Context(), postID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, msg)
}

// postViews replaces author ids with usernames.
func postViews(ctx context.Context, users *services.UserService, posts []models.Post) ([]models.PostView, error) {
	authors := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		authors = append(authors, p.Author)
	}
	names, err := users.UsernameLookup(ctx, authors)
	if err != nil {
		return nil, errors.Wrap(err, "LOOKUP_ERROR", "failed to resolve authors", errors.ErrInternal.Status)
	}

	views := make([]models.PostView, len(posts))
	for i, p := range posts {
		views[i] = models.PostView{
			ID:          p.ID,
			Author:      names[p.Author],
			Content:     p.Content,
			Options:     p.Options,
			DateCreated: p.DateCreated,
			DateUpdated: p.DateUpdated,
		}
	}
	return views, nil
}
