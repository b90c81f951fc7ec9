package search

import (
	"context"
	"fmt"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	tsclient "github.com/leafhq/leaf/backend/internal/infrastructure/clients/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

// TypesenseAdapter implements hotel search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements HotelSearchRepository
var _ repositories.HotelSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	// Check if collection exists
	_, err := a.client.Client().Collection(tsclient.HotelsCollection).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: tsclient.HotelsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "city", Type: "string", Facet: pointer.True()},
			{Name: "is_active", Type: "bool"},
			{Name: "location", Type: "geopoint"},
			{Name: "rating", Type: "float"},
			{Name: "review_count", Type: "int32"},
			{Name: "min_price_cents", Type: "int64"},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index indexes a hotel
func (a *TypesenseAdapter) Index(ctx context.Context, hotel *entities.Hotel) error {
	document := map[string]interface{}{
		"id":              hotel.ID,
		"name":            hotel.Name,
		"city":            hotel.City,
		"is_active":       hotel.IsActive,
		"location":        []float64{hotel.Location.Latitude, hotel.Location.Longitude},
		"rating":          hotel.Rating,
		"review_count":    hotel.ReviewCount,
		"min_price_cents": hotel.MinNightlyPrice(),
		"created_at":      hotel.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(tsclient.HotelsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index hotel: %w", err)
	}

	return nil
}

// Delete removes a hotel from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.HotelsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete hotel from index: %w", err)
	}
	return nil
}

// Search searches hotels by text and location
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Hotel, error) {
	query := params.Query
	if query == "" {
		query = "*"
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	filterBy := "is_active:=true"
	if params.RadiusKm > 0 {
		filterBy = fmt.Sprintf("is_active:=true && location:(%f, %f, %f km)",
			params.Latitude, params.Longitude, params.RadiusKm)
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(query),
		QueryBy:  pointer.String("name,city"),
		FilterBy: pointer.String(filterBy),
		Page:     pointer.Int(params.Offset/limit + 1),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.HotelsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search hotels: %w", err)
	}

	hotels := []*entities.Hotel{}
	for _, hit := range *result.Hits {
		doc := *hit.Document

		locInterface, ok := doc["location"].([]interface{})
		var lat, lon float64
		if ok && len(locInterface) == 2 {
			lat = locInterface[0].(float64)
			lon = locInterface[1].(float64)
		}

		// Typesense returns map[string]interface{}, cast safely. Full
		// details come from the database when callers need them.
		hotel := &entities.Hotel{
			ID:       doc["id"].(string),
			Name:     doc["name"].(string),
			City:     doc["city"].(string),
			IsActive: doc["is_active"].(bool),
			Location: entities.Location{
				Latitude:  lat,
				Longitude: lon,
			},
		}

		if val, ok := doc["rating"].(float64); ok {
			hotel.Rating = val
		}
		if val, ok := doc["review_count"].(float64); ok {
			hotel.ReviewCount = int(val)
		}

		hotels = append(hotels, hotel)
	}

	return hotels, nil
}
