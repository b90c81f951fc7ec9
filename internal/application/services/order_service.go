package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// OrderService handles amenity orders. Totals are computed server side from
// the amenity catalog; client-sent prices are ignored.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	amenityRepo repositories.AmenityRepository
}

// NewOrderService creates a new order service
func NewOrderService(orderRepo repositories.OrderRepository, amenityRepo repositories.AmenityRepository) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		amenityRepo: amenityRepo,
	}
}

// OrderLine is one requested amenity with a quantity
type OrderLine struct {
	AmenityID string `json:"amenity_id"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrder validates the requested amenities, snapshots their prices and
// persists the order
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, lines []OrderLine) (*entities.Order, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}
	if len(lines) == 0 {
		return nil, apperrors.NewValidationError("order must contain at least one amenity")
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("quantity for amenity %s must be positive", line.AmenityID))
		}
		ids = append(ids, line.AmenityID)
	}

	amenities, err := s.amenityRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Amenity, len(amenities))
	for _, a := range amenities {
		byID[a.ID] = a
	}

	order := &entities.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    entities.OrderStatusPlaced,
		CreatedAt: time.Now(),
	}

	for _, line := range lines {
		amenity, ok := byID[line.AmenityID]
		if !ok {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("amenity with id %s not found", line.AmenityID))
		}
		if !amenity.InService {
			return nil, apperrors.NewValidationError(fmt.Sprintf("amenity %s is not in service", amenity.Name))
		}

		order.Amenities = append(order.Amenities, entities.OrderAmenity{
			OrderID:   order.ID,
			AmenityID: amenity.ID,
			Quantity:  line.Quantity,
			UnitPrice: amenity.Price,
		})
		order.Total += amenity.Price * int64(line.Quantity)
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrder retrieves an order with its amenities
func (s *OrderService) GetOrder(ctx context.Context, id string) (*entities.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// ListOrders retrieves orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, limit, offset int) ([]*entities.Order, error) {
	return s.orderRepo.List(ctx, limit, offset)
}
