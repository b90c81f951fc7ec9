package repositories

import (
	"context"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
)

// UserRepository defines the interface for user reads. Account creation and
// authentication live in an external identity provider.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// ListByRoles retrieves users holding any of the given roles, newest
	// first. Used by the staff back-office listing.
	ListByRoles(ctx context.Context, roles []entities.UserRole, limit, offset int) ([]*entities.User, error)
}
