package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	"github.com/leafhq/leaf/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// HotelAdapter implements the HotelRepository interface
type HotelAdapter struct {
	client *postgres.Client
}

// NewHotelAdapter creates a new hotel adapter
func NewHotelAdapter(client *postgres.Client) repositories.HotelRepository {
	return &HotelAdapter{
		client: client,
	}
}

// Create creates a new hotel with its room types
func (a *HotelAdapter) Create(ctx context.Context, hotel *entities.Hotel) error {
	tx, err := a.client.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO hotels (
			id, name, description, address_line, city,
			latitude, longitude, rating, review_count,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, query,
		hotel.ID,
		hotel.Name,
		hotel.Description,
		hotel.AddressLine,
		hotel.City,
		hotel.Location.Latitude,
		hotel.Location.Longitude,
		hotel.Rating,
		hotel.ReviewCount,
		hotel.IsActive,
		hotel.CreatedAt,
		hotel.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to create hotel", err)
	}

	for _, rt := range hotel.RoomTypes {
		if err := insertRoomType(ctx, tx, &rt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit hotel", err)
	}

	return nil
}

func insertRoomType(ctx context.Context, tx *sql.Tx, rt *entities.RoomType) error {
	query := `
		INSERT INTO room_types (
			id, hotel_id, name, base_price_cents, capacity, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.ExecContext(ctx, query,
		rt.ID,
		rt.HotelID,
		rt.Name,
		rt.BasePrice,
		rt.Capacity,
		rt.CreatedAt,
		rt.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to create room type", err)
	}

	return nil
}

// GetByID retrieves a hotel by ID, room types included
func (a *HotelAdapter) GetByID(ctx context.Context, id string) (*entities.Hotel, error) {
	query := `
		SELECT
			id, name, description, address_line, city,
			latitude, longitude, rating, review_count,
			is_active, created_at, updated_at
		FROM hotels
		WHERE id = $1
	`

	hotel := &entities.Hotel{}
	err := a.client.DB().QueryRowContext(ctx, query, id).Scan(
		&hotel.ID,
		&hotel.Name,
		&hotel.Description,
		&hotel.AddressLine,
		&hotel.City,
		&hotel.Location.Latitude,
		&hotel.Location.Longitude,
		&hotel.Rating,
		&hotel.ReviewCount,
		&hotel.IsActive,
		&hotel.CreatedAt,
		&hotel.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("hotel with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hotel", err)
	}

	roomTypes, err := a.roomTypesForHotel(ctx, id)
	if err != nil {
		return nil, err
	}
	hotel.RoomTypes = roomTypes

	return hotel, nil
}

func (a *HotelAdapter) roomTypesForHotel(ctx context.Context, hotelID string) ([]entities.RoomType, error) {
	query := `
		SELECT id, hotel_id, name, base_price_cents, capacity, created_at, updated_at
		FROM room_types
		WHERE hotel_id = $1
		ORDER BY base_price_cents ASC
	`

	rows, err := a.client.DB().QueryContext(ctx, query, hotelID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list room types", err)
	}
	defer rows.Close()

	var roomTypes []entities.RoomType
	for rows.Next() {
		var rt entities.RoomType
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

// Update updates a hotel
func (a *HotelAdapter) Update(ctx context.Context, hotel *entities.Hotel) error {
	hotel.UpdatedAt = time.Now()

	query := `
		UPDATE hotels SET
			name = $2, description = $3, address_line = $4, city = $5,
			latitude = $6, longitude = $7, rating = $8, review_count = $9,
			is_active = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := a.client.DB().ExecContext(ctx, query,
		hotel.ID,
		hotel.Name,
		hotel.Description,
		hotel.AddressLine,
		hotel.City,
		hotel.Location.Latitude,
		hotel.Location.Longitude,
		hotel.Rating,
		hotel.ReviewCount,
		hotel.IsActive,
		hotel.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to update hotel", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("hotel with id %s not found", hotel.ID))
	}

	return nil
}

// List retrieves hotels
func (a *HotelAdapter) List(ctx context.Context, filter repositories.HotelFilter) ([]*entities.Hotel, error) {
	query := `
		SELECT
			id, name, description, address_line, city,
			latitude, longitude, rating, review_count,
			is_active, created_at, updated_at
		FROM hotels
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 1

	if filter.City != "" {
		query += fmt.Sprintf(" AND city = $%d", argCount)
		args = append(args, filter.City)
		argCount++
	}

	if filter.IsActive != nil {
		query += fmt.Sprintf(" AND is_active = $%d", argCount)
		args = append(args, *filter.IsActive)
		argCount++
	}

	query += " ORDER BY rating DESC, name ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	return a.queryHotels(ctx, query, args...)
}

// Search searches hotels by distance from a point. Used as the database
// fallback when the search engine is unavailable.
func (a *HotelAdapter) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Hotel, error) {
	// Haversine over lat/lng columns. In production you'd use PostGIS.
	query := `
		SELECT
			id, name, description, address_line, city,
			latitude, longitude, rating, review_count,
			is_active, created_at, updated_at
		FROM (
			SELECT *,
				(6371 * acos(cos(radians($1)) * cos(radians(latitude)) *
				cos(radians(longitude) - radians($2)) + sin(radians($1)) *
				sin(radians(latitude)))) AS distance
			FROM hotels
			WHERE is_active = true
		) AS nearby
		WHERE distance <= $3
		ORDER BY distance
	`

	args := []interface{}{params.Latitude, params.Longitude, params.RadiusKm}
	argCount := 4

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, params.Limit)
		argCount++
	}

	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, params.Offset)
	}

	return a.queryHotels(ctx, query, args...)
}

func (a *HotelAdapter) queryHotels(ctx context.Context, query string, args ...interface{}) ([]*entities.Hotel, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query hotels", err)
	}
	defer rows.Close()

	hotels := []*entities.Hotel{}
	for rows.Next() {
		hotel := &entities.Hotel{}
		err := rows.Scan(
			&hotel.ID,
			&hotel.Name,
			&hotel.Description,
			&hotel.AddressLine,
			&hotel.City,
			&hotel.Location.Latitude,
			&hotel.Location.Longitude,
			&hotel.Rating,
			&hotel.ReviewCount,
			&hotel.IsActive,
			&hotel.CreatedAt,
			&hotel.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan hotel", err)
		}
		hotels = append(hotels, hotel)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating hotels", err)
	}

	return hotels, nil
}
