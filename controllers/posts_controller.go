package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"posts-api/db"
	"posts-api/middlewares"
	"posts-api/models"
	"posts-api/validation"
)

const maxPostBodyBytes = 1 << 20

// PostHandler serves the posts resource.
type PostHandler struct {
	Posts db.Posts
}

// SetupPostRoutes mounts the posts routes under prefix.
func SetupPostRoutes(r *mux.Router, prefix string, posts db.Posts) {
	h := &PostHandler{Posts: posts}

	postsRouter := r.PathPrefix(prefix).Subrouter()
	postsRouter.HandleFunc("", h.GetPosts).Methods(http.MethodGet)
	postsRouter.HandleFunc("", h.CreatePost).Methods(http.MethodPost)
	postsRouter.HandleFunc("/{id}", h.GetPost).Methods(http.MethodGet)
	postsRouter.HandleFunc("/{id}", h.UpdatePost).Methods(http.MethodPut)
	postsRouter.HandleFunc("/{id}", h.DeletePost).Methods(http.MethodDelete)
}

func (h *PostHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Posts.List(r.Context())
	if err != nil {
		respondStoreError(w, r, "Failed to fetch posts", err)
		return
	}

	middlewares.RespondJSON(w, posts, http.StatusOK)
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.Posts.GetByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, "Failed to fetch post", err)
		return
	}

	middlewares.RespondJSON(w, post, http.StatusOK)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	in, ok := decodePost(w, r)
	if !ok {
		return
	}

	post, err := h.Posts.Create(r.Context(), in)
	if err != nil {
		respondStoreError(w, r, "Failed to create post", err)
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+strconv.FormatInt(post.ID, 10))
	middlewares.RespondJSON(w, post, http.StatusCreated)
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	in, ok := decodePost(w, r)
	if !ok {
		return
	}

	post, err := h.Posts.Update(r.Context(), id, in)
	if err != nil {
		respondStoreError(w, r, "Failed to update post", err)
		return
	}

	middlewares.RespondJSON(w, post, http.StatusOK)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.Posts.Remove(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, "Failed to delete post", err)
		return
	}

	middlewares.RespondJSON(w, post, http.StatusOK)
}

// postID parses the {id} path variable. It writes a 400 and returns false
// when the id is not a positive integer.
func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		middlewares.HttpError(w, r, "Invalid ID parameter", http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

// decodePost reads and validates the request body. It writes a 400 and
// returns false when the body is malformed or fails validation.
func decodePost(w http.ResponseWriter, r *http.Request) (models.PostInput, bool) {
	var in models.PostInput

	r.Body = http.MaxBytesReader(w, r.Body, maxPostBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		middlewares.HttpError(w, r, "Invalid JSON payload", http.StatusBadRequest, err)
		return models.PostInput{}, false
	}

	if err := validation.ValidatePost(in); err != nil {
		apiErr := middlewares.NewAPIError(http.StatusBadRequest, "Validation failed")
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			apiErr.Errors = verr.Errors
		}
		middlewares.RespondError(w, r, apiErr, err)
		return models.PostInput{}, false
	}

	return in, true
}

// respondStoreError maps accessor errors onto HTTP statuses. Unexpected
// errors get a 500 carrying only msg.
func respondStoreError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		middlewares.HttpError(w, r, "Post not found", http.StatusNotFound, err)
	case errors.Is(err, db.ErrConstraintViolation):
		middlewares.HttpError(w, r, "Post violates a table constraint", http.StatusBadRequest, err)
	default:
		middlewares.HttpError(w, r, msg, http.StatusInternalServerError, err)
	}
}
