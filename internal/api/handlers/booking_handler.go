package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// dateLayout is the wire format for calendar dates. Stays are night-granular
// so no time component is accepted.
const dateLayout = "2006-01-02"

// ReservationService defines the interface for reservation operations
type ReservationService interface {
	CheckAvailability(ctx context.Context, hotelID string, roomTypeCounts map[string]int, rng entities.DateRange) (*entities.AvailabilityResult, error)
	QuoteCharge(ctx context.Context, req *entities.BookingRequest) (*entities.Quote, error)
	ConfirmBooking(ctx context.Context, req *entities.BookingRequest) (*entities.Booking, error)
	HoldBooking(ctx context.Context, req *entities.BookingRequest) (*entities.Booking, error)
	ConfirmHold(ctx context.Context, bookingID string) (*entities.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) error
	GetBooking(ctx context.Context, bookingID string) (*entities.Booking, error)
	ListUserBookings(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error)
	AddReview(ctx context.Context, review *entities.Review) error
}

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	service ReservationService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service ReservationService) *BookingHandler {
	return &BookingHandler{
		service: service,
	}
}

// bookingRequestPayload is the wire form of a reservation attempt
type bookingRequestPayload struct {
	UserID         string         `json:"user_id"`
	HotelID        string         `json:"hotel_id"`
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	RoomTypeCounts map[string]int `json:"room_type_counts"`
}

func (p *bookingRequestPayload) toEntity() (*entities.BookingRequest, error) {
	rng, err := parseDateRange(p.StartDate, p.EndDate)
	if err != nil {
		return nil, err
	}
	return &entities.BookingRequest{
		UserID:         p.UserID,
		HotelID:        p.HotelID,
		RoomTypeCounts: p.RoomTypeCounts,
		Range:          rng,
	}, nil
}

func parseDateRange(startStr, endStr string) (entities.DateRange, error) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return entities.DateRange{}, apperrors.NewValidationError("invalid start_date format (use YYYY-MM-DD)")
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return entities.DateRange{}, apperrors.NewValidationError("invalid end_date format (use YYYY-MM-DD)")
	}
	return entities.NewDateRange(start, end)
}

// GetAvailability handles GET /api/hotels/{id}/availability
//
// Query parameters: start and end as YYYY-MM-DD, and one room_type=<id>:<n>
// pair per requested type.
func (h *BookingHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	hotelID := r.PathValue("id")
	if hotelID == "" {
		respondWithError(w, http.StatusBadRequest, "hotel ID is required")
		return
	}

	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		respondWithError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid start date format (use YYYY-MM-DD)")
		return
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid end date format (use YYYY-MM-DD)")
		return
	}

	rng, err := entities.NewDateRange(start, end)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	roomTypeCounts, err := parseRoomTypeCounts(r.URL.Query()["room_type"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.CheckAvailability(r.Context(), hotelID, roomTypeCounts, rng)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

var errInvalidRoomTypePair = errors.New("room_type must be formatted as <room_type_id>:<count> with a positive count")

func parseRoomTypeCounts(pairs []string) (map[string]int, error) {
	counts := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		id, countStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, errInvalidRoomTypePair
		}
		count, err := strconv.Atoi(countStr)
		if err != nil || count <= 0 {
			return nil, errInvalidRoomTypePair
		}
		counts[id] = count
	}
	return counts, nil
}

// QuoteBooking handles POST /api/bookings/quote
func (h *BookingHandler) QuoteBooking(w http.ResponseWriter, r *http.Request) {
	var payload bookingRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	req, err := payload.toEntity()
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	quote, err := h.service.QuoteCharge(r.Context(), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, quote)
}

// CreateBooking handles POST /api/bookings. The booking is confirmed in a
// single atomic claim.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	h.claim(w, r, h.service.ConfirmBooking)
}

// HoldBooking handles POST /api/bookings/hold. The claim is made as a
// pending booking that expires if never confirmed.
func (h *BookingHandler) HoldBooking(w http.ResponseWriter, r *http.Request) {
	h.claim(w, r, h.service.HoldBooking)
}

func (h *BookingHandler) claim(w http.ResponseWriter, r *http.Request, fn func(context.Context, *entities.BookingRequest) (*entities.Booking, error)) {
	var payload bookingRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	req, err := payload.toEntity()
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	booking, err := fn(r.Context(), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, booking)
}

// ConfirmHold handles POST /api/bookings/{id}/confirm
func (h *BookingHandler) ConfirmHold(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.service.ConfirmHold(r.Context(), bookingID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// CancelBooking handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	if err := h.service.CancelBooking(r.Context(), bookingID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"id":     bookingID,
		"status": string(entities.BookingStatusCancelled),
	})
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.service.GetBooking(r.Context(), bookingID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// ListBookings handles GET /api/bookings
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	filter := repositories.BookingFilter{
		Status: entities.BookingStatus(r.URL.Query().Get("status")),
		Limit:  30,
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			respondWithError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	bookings, err := h.service.ListUserBookings(r.Context(), userID, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// AddReview handles POST /api/reviews
func (h *BookingHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	var review entities.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.service.AddReview(r.Context(), &review); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, review)
}
