package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
)

// HotelService defines the interface for hotel catalog operations
type HotelService interface {
	Create(ctx context.Context, hotel *entities.Hotel) error
	GetByID(ctx context.Context, id string) (*entities.Hotel, error)
	Update(ctx context.Context, hotel *entities.Hotel) error
	List(ctx context.Context, filter repositories.HotelFilter) ([]*entities.Hotel, error)
	Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Hotel, error)
}

// HotelHandler handles hotel-related HTTP requests
type HotelHandler struct {
	service HotelService
}

// NewHotelHandler creates a new hotel handler
func NewHotelHandler(service HotelService) *HotelHandler {
	return &HotelHandler{
		service: service,
	}
}

// GetHotel handles GET /api/hotels/{id}
func (h *HotelHandler) GetHotel(w http.ResponseWriter, r *http.Request) {
	hotelID := r.PathValue("id")
	if hotelID == "" {
		respondWithError(w, http.StatusBadRequest, "hotel ID is required")
		return
	}

	hotel, err := h.service.GetByID(r.Context(), hotelID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, hotel)
}

// ListHotels handles GET /api/hotels
func (h *HotelHandler) ListHotels(w http.ResponseWriter, r *http.Request) {
	filter := repositories.HotelFilter{
		City:   r.URL.Query().Get("city"),
		Limit:  30,
		Offset: 0,
	}

	if activeStr := r.URL.Query().Get("is_active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filter.IsActive = &active
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	hotels, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hotels": hotels,
		"count":  len(hotels),
	})
}

// SearchHotels handles GET /api/hotels/search
func (h *HotelHandler) SearchHotels(w http.ResponseWriter, r *http.Request) {
	params := repositories.SearchParams{
		Query: r.URL.Query().Get("q"),
		Limit: 30,
	}

	if latStr := r.URL.Query().Get("lat"); latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid lat parameter")
			return
		}
		params.Latitude = lat
	}
	if lonStr := r.URL.Query().Get("lon"); lonStr != "" {
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid lon parameter")
			return
		}
		params.Longitude = lon
	}
	if radiusStr := r.URL.Query().Get("radius_km"); radiusStr != "" {
		radius, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil || radius <= 0 {
			respondWithError(w, http.StatusBadRequest, "invalid radius_km parameter")
			return
		}
		params.RadiusKm = radius
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			params.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset > 0 {
			params.Offset = offset
		}
	}

	if params.Query == "" && params.RadiusKm == 0 {
		respondWithError(w, http.StatusBadRequest, "q or lat/lon/radius_km parameters are required")
		return
	}

	hotels, err := h.service.Search(r.Context(), params)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hotels": hotels,
		"count":  len(hotels),
	})
}

// CreateHotel handles POST /api/hotels
func (h *HotelHandler) CreateHotel(w http.ResponseWriter, r *http.Request) {
	var hotel entities.Hotel
	if err := json.NewDecoder(r.Body).Decode(&hotel); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.service.Create(r.Context(), &hotel); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, hotel)
}

// UpdateHotel handles PATCH /api/hotels/{id}
func (h *HotelHandler) UpdateHotel(w http.ResponseWriter, r *http.Request) {
	hotelID := r.PathValue("id")
	if hotelID == "" {
		respondWithError(w, http.StatusBadRequest, "hotel ID is required")
		return
	}

	hotel, err := h.service.GetByID(r.Context(), hotelID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	// Decode over the loaded entity so absent fields keep their values
	if err := json.NewDecoder(r.Body).Decode(hotel); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	hotel.ID = hotelID

	if err := h.service.Update(r.Context(), hotel); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, hotel)
}
