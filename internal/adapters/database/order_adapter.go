package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	"github.com/leafhq/leaf/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// OrderAdapter implements the OrderRepository interface
type OrderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewOrderAdapter creates a new order adapter
func NewOrderAdapter(client *postgres.Client) repositories.OrderRepository {
	return &OrderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts an order with its order_amenities rows atomically
func (a *OrderAdapter) Create(ctx context.Context, order *entities.Order) error {
	tx, err := a.client.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin order transaction", err)
	}
	defer tx.Rollback()

	record := goqu.Record{
		"id":          order.ID,
		"user_id":     order.UserID,
		"total_cents": order.Total,
		"status":      order.Status,
		"created_at":  order.CreatedAt,
	}

	query, args, err := a.db.Insert("orders").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build order insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert order", err)
	}

	lineRecords := make([]goqu.Record, 0, len(order.Amenities))
	for _, oa := range order.Amenities {
		lineRecords = append(lineRecords, goqu.Record{
			"order_id":         order.ID,
			"amenity_id":       oa.AmenityID,
			"quantity":         oa.Quantity,
			"unit_price_cents": oa.UnitPrice,
		})
	}

	query, args, err = a.db.Insert("order_amenities").Rows(lineRecords).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build order amenities insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert order amenities", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit order", err)
	}

	return nil
}

// GetByID retrieves an order with its amenities
func (a *OrderAdapter) GetByID(ctx context.Context, id string) (*entities.Order, error) {
	query, args, err := a.db.Select(
		"id", "user_id", "total_cents", "status", "created_at",
	).From("orders").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	order := &entities.Order{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&order.ID,
		&order.UserID,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get order", err)
	}

	lines, err := a.linesForOrders(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	order.Amenities = lines[id]

	return order, nil
}

// List retrieves orders, newest first
func (a *OrderAdapter) List(ctx context.Context, limit, offset int) ([]*entities.Order, error) {
	ds := a.db.Select(
		"id", "user_id", "total_cents", "status", "created_at",
	).From("orders").
		Order(goqu.I("created_at").Desc())

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

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list orders", err)
	}
	defer rows.Close()

	var orders []*entities.Order
	var orderIDs []string
	for rows.Next() {
		order := &entities.Order{}
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Total,
			&order.Status,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan order", err)
		}
		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating orders", err)
	}

	if len(orderIDs) == 0 {
		return orders, nil
	}

	lines, err := a.linesForOrders(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Amenities = lines[o.ID]
	}

	return orders, nil
}

func (a *OrderAdapter) linesForOrders(ctx context.Context, orderIDs []string) (map[string][]entities.OrderAmenity, error) {
	query, args, err := a.db.Select(
		"order_id", "amenity_id", "quantity", "unit_price_cents",
	).From("order_amenities").
		Where(goqu.C("order_id").In(orderIDs)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build order amenities query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list order amenities", err)
	}
	defer rows.Close()

	result := make(map[string][]entities.OrderAmenity)
	for rows.Next() {
		var oa entities.OrderAmenity
		err := rows.Scan(
			&oa.OrderID,
			&oa.AmenityID,
			&oa.Quantity,
			&oa.UnitPrice,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan order amenity", err)
		}
		result[oa.OrderID] = append(result[oa.OrderID], oa)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating order amenities", err)
	}

	return result, nil
}
