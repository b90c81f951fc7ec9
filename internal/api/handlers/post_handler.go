package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
)

// PostHandler handles content post HTTP requests
type PostHandler struct {
	postRepo repositories.PostRepository
}

// NewPostHandler creates a new post handler
func NewPostHandler(postRepo repositories.PostRepository) *PostHandler {
	return &PostHandler{
		postRepo: postRepo,
	}
}

// CreatePost handles POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var post entities.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if post.Title == "" {
		respondWithError(w, http.StatusBadRequest, "post title is required")
		return
	}

	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	if err := h.postRepo.Create(r.Context(), &post); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, post)
}

// GetPost handles GET /api/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("id")
	if postID == "" {
		respondWithError(w, http.StatusBadRequest, "post ID is required")
		return
	}

	post, err := h.postRepo.GetByID(r.Context(), postID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("id")
	if postID == "" {
		respondWithError(w, http.StatusBadRequest, "post ID is required")
		return
	}

	if err := h.postRepo.Delete(r.Context(), postID); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPosts handles GET /api/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 30)

	posts, err := h.postRepo.List(r.Context(), limit, offset)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"posts": posts,
		"count": len(posts),
	})
}
