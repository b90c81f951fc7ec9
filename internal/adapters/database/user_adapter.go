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

// UserAdapter implements the UserRepository interface
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) repositories.UserRepository {
	return &UserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id string) (*entities.User, error) {
	query, args, err := a.db.Select(
		"id", "name", "email", "role", "phone", "created_at",
	).From("users").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	user := &entities.User{}
	var phone sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&phone,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}

	user.Phone = phone.String

	return user, nil
}

// ListByRoles retrieves users holding any of the given roles, newest first
func (a *UserAdapter) ListByRoles(ctx context.Context, roles []entities.UserRole, limit, offset int) ([]*entities.User, error) {
	roleValues := make([]string, 0, len(roles))
	for _, r := range roles {
		roleValues = append(roleValues, string(r))
	}

	ds := a.db.Select(
		"id", "name", "email", "role", "phone", "created_at",
	).From("users").
		Where(goqu.C("role").In(roleValues)).
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
		return nil, apperrors.NewInternalError("failed to list users", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user := &entities.User{}
		var phone sql.NullString
		err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Role,
			&phone,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan user", err)
		}
		user.Phone = phone.String
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating users", err)
	}

	return users, nil
}
