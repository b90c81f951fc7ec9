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

// PostAdapter implements the PostRepository interface
type PostAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPostAdapter creates a new post adapter
func NewPostAdapter(client *postgres.Client) repositories.PostRepository {
	return &PostAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new post
func (a *PostAdapter) Create(ctx context.Context, post *entities.Post) error {
	record := goqu.Record{
		"id":          post.ID,
		"title":       post.Title,
		"description": post.Description,
		"banner":      post.Banner,
		"content":     post.Content,
		"created_at":  post.CreatedAt,
		"updated_at":  post.UpdatedAt,
	}

	query, args, err := a.db.Insert("posts").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create post", err)
	}

	return nil
}

// GetByID retrieves a post by ID
func (a *PostAdapter) GetByID(ctx context.Context, id string) (*entities.Post, error) {
	query, args, err := a.db.Select(
		"id", "title", "description", "banner", "content", "created_at", "updated_at",
	).From("posts").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	post := &entities.Post{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&post.ID,
		&post.Title,
		&post.Description,
		&post.Banner,
		&post.Content,
		&post.CreatedAt,
		&post.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("post with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get post", err)
	}

	return post, nil
}

// Delete removes a post
func (a *PostAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("posts").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete post", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("post with id %s not found", id))
	}

	return nil
}

// List retrieves posts, newest first
func (a *PostAdapter) List(ctx context.Context, limit, offset int) ([]*entities.Post, error) {
	ds := a.db.Select(
		"id", "title", "description", "banner", "content", "created_at", "updated_at",
	).From("posts").
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
		return nil, apperrors.NewInternalError("failed to list posts", err)
	}
	defer rows.Close()

	var posts []*entities.Post
	for rows.Next() {
		post := &entities.Post{}
		err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.Description,
			&post.Banner,
			&post.Content,
			&post.CreatedAt,
			&post.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan post", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating posts", err)
	}

	return posts, nil
}
