package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	"github.com/leafhq/leaf/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// AmenityAdapter implements the AmenityRepository interface
type AmenityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAmenityAdapter creates a new amenity adapter
func NewAmenityAdapter(client *postgres.Client) repositories.AmenityRepository {
	return &AmenityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new amenity
func (a *AmenityAdapter) Create(ctx context.Context, amenity *entities.Amenity) error {
	record := goqu.Record{
		"id":          amenity.ID,
		"name":        amenity.Name,
		"description": amenity.Description,
		"price_cents": amenity.Price,
		"in_service":  amenity.InService,
		"created_at":  amenity.CreatedAt,
		"updated_at":  amenity.UpdatedAt,
	}

	query, args, err := a.db.Insert("amenities").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create amenity", err)
	}

	return nil
}

// GetByID retrieves an amenity by ID
func (a *AmenityAdapter) GetByID(ctx context.Context, id string) (*entities.Amenity, error) {
	query, args, err := a.db.Select(
		"id", "name", "description", "price_cents", "in_service", "created_at", "updated_at",
	).From("amenities").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	amenity := &entities.Amenity{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&amenity.ID,
		&amenity.Name,
		&amenity.Description,
		&amenity.Price,
		&amenity.InService,
		&amenity.CreatedAt,
		&amenity.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("amenity with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get amenity", err)
	}

	return amenity, nil
}

// GetByIDs retrieves amenities by ID
func (a *AmenityAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Amenity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := a.db.Select(
		"id", "name", "description", "price_cents", "in_service", "created_at", "updated_at",
	).From("amenities").
		Where(goqu.C("id").In(ids)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryAmenities(ctx, query, args...)
}

// Update updates an amenity
func (a *AmenityAdapter) Update(ctx context.Context, amenity *entities.Amenity) error {
	amenity.UpdatedAt = time.Now()

	query, args, err := a.db.Update("amenities").
		Set(goqu.Record{
			"name":        amenity.Name,
			"description": amenity.Description,
			"price_cents": amenity.Price,
			"in_service":  amenity.InService,
			"updated_at":  amenity.UpdatedAt,
		}).
		Where(goqu.Ex{"id": amenity.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update amenity", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("amenity with id %s not found", amenity.ID))
	}

	return nil
}

// Delete removes an amenity from the catalog
func (a *AmenityAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("amenities").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete amenity", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("amenity with id %s not found", id))
	}

	return nil
}

// List retrieves amenities
func (a *AmenityAdapter) List(ctx context.Context, limit, offset int) ([]*entities.Amenity, error) {
	ds := a.db.Select(
		"id", "name", "description", "price_cents", "in_service", "created_at", "updated_at",
	).From("amenities").
		Order(goqu.I("name").Asc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryAmenities(ctx, query, args...)
}

func (a *AmenityAdapter) queryAmenities(ctx context.Context, query string, args ...interface{}) ([]*entities.Amenity, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list amenities", err)
	}
	defer rows.Close()

	var amenities []*entities.Amenity
	for rows.Next() {
		amenity := &entities.Amenity{}
		err := rows.Scan(
			&amenity.ID,
			&amenity.Name,
			&amenity.Description,
			&amenity.Price,
			&amenity.InService,
			&amenity.CreatedAt,
			&amenity.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan amenity", err)
		}
		amenities = append(amenities, amenity)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating amenities", err)
	}

	return amenities, nil
}
