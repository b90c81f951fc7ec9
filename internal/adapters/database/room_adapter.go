package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	"github.com/leafhq/leaf/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// RoomAdapter implements the RoomRepository interface
type RoomAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRoomAdapter creates a new room adapter
func NewRoomAdapter(client *postgres.Client) repositories.RoomRepository {
	return &RoomAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListByRoomTypes retrieves all rooms belonging to the given room types of a
// hotel, in stable id order.
func (a *RoomAdapter) ListByRoomTypes(ctx context.Context, hotelID string, roomTypeIDs []string) ([]*entities.Room, error) {
	if len(roomTypeIDs) == 0 {
		return nil, nil
	}

	query, args, err := a.db.Select(
		"id", "room_type_id", "hotel_id", "name", "created_at",
	).From("rooms").
		Where(
			goqu.Ex{"hotel_id": hotelID},
			goqu.C("room_type_id").In(roomTypeIDs),
		).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build rooms query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list rooms", err)
	}
	defer rows.Close()

	var rooms []*entities.Room
	for rows.Next() {
		room := &entities.Room{}
		err := rows.Scan(
			&room.ID,
			&room.RoomTypeID,
			&room.HotelID,
			&room.Name,
			&room.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan room", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating rooms", err)
	}

	return rooms, nil
}

// GetRoomTypes retrieves room types by ID
func (a *RoomAdapter) GetRoomTypes(ctx context.Context, roomTypeIDs []string) ([]*entities.RoomType, error) {
	if len(roomTypeIDs) == 0 {
		return nil, nil
	}

	query, args, err := a.db.Select(
		"id", "hotel_id", "name", "base_price_cents", "capacity", "created_at", "updated_at",
	).From("room_types").
		Where(goqu.C("id").In(roomTypeIDs)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build room types query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list room types", err)
	}
	defer rows.Close()

	var roomTypes []*entities.RoomType
	for rows.Next() {
		rt := &entities.RoomType{}
		err := rows.Scan(
			&rt.ID,
			&rt.HotelID,
			&rt.Name,
			&rt.BasePrice,
			&rt.Capacity,
			&rt.CreatedAt,
			&rt.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan room type", err)
		}
		roomTypes = append(roomTypes, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating room types", err)
	}

	return roomTypes, nil
}
