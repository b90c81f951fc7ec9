package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
)

// AmenityHandler handles amenity catalog HTTP requests
type AmenityHandler struct {
	amenityRepo repositories.AmenityRepository
}

// NewAmenityHandler creates a new amenity handler
func NewAmenityHandler(amenityRepo repositories.AmenityRepository) *AmenityHandler {
	return &AmenityHandler{
		amenityRepo: amenityRepo,
	}
}

// CreateAmenity handles POST /api/amenities
func (h *AmenityHandler) CreateAmenity(w http.ResponseWriter, r *http.Request) {
	var amenity entities.Amenity
	if err := json.NewDecoder(r.Body).Decode(&amenity); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if amenity.Name == "" {
		respondWithError(w, http.StatusBadRequest, "amenity name is required")
		return
	}
	if amenity.Price < 0 {
		respondWithError(w, http.StatusBadRequest, "amenity price must not be negative")
		return
	}

	if amenity.ID == "" {
		amenity.ID = uuid.New().String()
	}
	now := time.Now()
	amenity.CreatedAt = now
	amenity.UpdatedAt = now

	if err := h.amenityRepo.Create(r.Context(), &amenity); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, amenity)
}

// GetAmenity handles GET /api/amenities/{id}
func (h *AmenityHandler) GetAmenity(w http.ResponseWriter, r *http.Request) {
	amenityID := r.PathValue("id")
	if amenityID == "" {
		respondWithError(w, http.StatusBadRequest, "amenity ID is required")
		return
	}

	amenity, err := h.amenityRepo.GetByID(r.Context(), amenityID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, amenity)
}

// UpdateAmenity handles PATCH /api/amenities/{id}
func (h *AmenityHandler) UpdateAmenity(w http.ResponseWriter, r *http.Request) {
	amenityID := r.PathValue("id")
	if amenityID == "" {
		respondWithError(w, http.StatusBadRequest, "amenity ID is required")
		return
	}

	amenity, err := h.amenityRepo.GetByID(r.Context(), amenityID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(amenity); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	amenity.ID = amenityID

	if err := h.amenityRepo.Update(r.Context(), amenity); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, amenity)
}

// DeleteAmenity handles DELETE /api/amenities/{id}
func (h *AmenityHandler) DeleteAmenity(w http.ResponseWriter, r *http.Request) {
	amenityID := r.PathValue("id")
	if amenityID == "" {
		respondWithError(w, http.StatusBadRequest, "amenity ID is required")
		return
	}

	if err := h.amenityRepo.Delete(r.Context(), amenityID); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAmenities handles GET /api/amenities
func (h *AmenityHandler) ListAmenities(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 30)

	amenities, err := h.amenityRepo.List(r.Context(), limit, offset)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"amenities": amenities,
		"count":     len(amenities),
	})
}

func parseLimitOffset(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			limit = v
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil && v > 0 {
			offset = v
		}
	}
	return limit, offset
}
