package routes

import (
	"net/http"

	"github.com/leafhq/leaf/backend/internal/api/handlers"
	"github.com/leafhq/leaf/backend/internal/api/middleware"
	"github.com/leafhq/leaf/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	hotelHandler   *handlers.HotelHandler
	bookingHandler *handlers.BookingHandler
	amenityHandler *handlers.AmenityHandler
	orderHandler   *handlers.OrderHandler
	postHandler    *handlers.PostHandler
	staffHandler   *handlers.StaffHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	hotelHandler *handlers.HotelHandler,
	bookingHandler *handlers.BookingHandler,
	amenityHandler *handlers.AmenityHandler,
	orderHandler *handlers.OrderHandler,
	postHandler *handlers.PostHandler,
	staffHandler *handlers.StaffHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		hotelHandler:    hotelHandler,
		bookingHandler:  bookingHandler,
		amenityHandler:  amenityHandler,
		orderHandler:    orderHandler,
		postHandler:     postHandler,
		staffHandler:    staffHandler,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Hotel catalog endpoints
	r.mux.HandleFunc("GET /api/hotels", r.hotelHandler.ListHotels)
	r.mux.HandleFunc("GET /api/hotels/search", r.hotelHandler.SearchHotels)
	r.mux.HandleFunc("GET /api/hotels/{id}", r.hotelHandler.GetHotel)
	r.mux.HandleFunc("POST /api/hotels", r.hotelHandler.CreateHotel)
	r.mux.HandleFunc("PATCH /api/hotels/{id}", r.hotelHandler.UpdateHotel)

	// Availability endpoint
	r.mux.HandleFunc("GET /api/hotels/{id}/availability", r.bookingHandler.GetAvailability)

	// Booking endpoints
	r.mux.HandleFunc("POST /api/bookings/quote", r.bookingHandler.QuoteBooking)
	r.mux.HandleFunc("POST /api/bookings", r.bookingHandler.CreateBooking)
	r.mux.HandleFunc("POST /api/bookings/hold", r.bookingHandler.HoldBooking)
	r.mux.HandleFunc("POST /api/bookings/{id}/confirm", r.bookingHandler.ConfirmHold)
	r.mux.HandleFunc("POST /api/bookings/{id}/cancel", r.bookingHandler.CancelBooking)
	r.mux.HandleFunc("GET /api/bookings/{id}", r.bookingHandler.GetBooking)
	r.mux.HandleFunc("GET /api/bookings", r.bookingHandler.ListBookings)

	// Review endpoint
	r.mux.HandleFunc("POST /api/reviews", r.bookingHandler.AddReview)

	// Amenity catalog endpoints
	r.mux.HandleFunc("GET /api/amenities", r.amenityHandler.ListAmenities)
	r.mux.HandleFunc("GET /api/amenities/{id}", r.amenityHandler.GetAmenity)
	r.mux.HandleFunc("POST /api/amenities", r.amenityHandler.CreateAmenity)
	r.mux.HandleFunc("PATCH /api/amenities/{id}", r.amenityHandler.UpdateAmenity)
	r.mux.HandleFunc("DELETE /api/amenities/{id}", r.amenityHandler.DeleteAmenity)

	// Amenity order endpoints
	r.mux.HandleFunc("POST /api/orders", r.orderHandler.PlaceOrder)
	r.mux.HandleFunc("GET /api/orders/{id}", r.orderHandler.GetOrder)
	r.mux.HandleFunc("GET /api/orders", r.orderHandler.ListOrders)

	// Content post endpoints
	r.mux.HandleFunc("GET /api/posts", r.postHandler.ListPosts)
	r.mux.HandleFunc("GET /api/posts/{id}", r.postHandler.GetPost)
	r.mux.HandleFunc("POST /api/posts", r.postHandler.CreatePost)
	r.mux.HandleFunc("DELETE /api/posts/{id}", r.postHandler.DeletePost)

	// Staff back-office endpoint
	r.mux.HandleFunc("GET /api/staffs", r.staffHandler.ListStaff)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
