package repositories

import (
	"context"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
)

// PostRepository defines the interface for post operations
type PostRepository interface {
	Create(ctx context.Context, post *entities.Post) error
	GetByID(ctx context.Context, id string) (*entities.Post, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*entities.Post, error)
}
