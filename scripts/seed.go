package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/leafhq/leaf/backend/internal/adapters/database"
	"github.com/leafhq/leaf/backend/internal/adapters/search"
	"github.com/leafhq/leaf/backend/internal/application/services"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	"github.com/leafhq/leaf/backend/internal/infrastructure/clients/postgres"
	"github.com/leafhq/leaf/backend/internal/infrastructure/clients/typesense"
	"github.com/leafhq/leaf/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	var searchRepo repositories.HotelSearchRepository
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err == nil {
		adapter := search.NewTypesenseAdapter(tsClient)
		if err := adapter.InitSchema(context.Background()); err != nil {
			log.Printf("Failed to init search schema: %v", err)
		}
		searchRepo = adapter
	} else {
		log.Printf("Typesense unavailable, seeding without search index: %v", err)
	}

	hotelRepo := database.NewHotelAdapter(pgClient)
	amenityRepo := database.NewAmenityAdapter(pgClient)
	postRepo := database.NewPostAdapter(pgClient)
	hotelService := services.NewHotelService(hotelRepo, searchRepo, nil)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				reviews,
				booking_rooms,
				bookings,
				order_amenities,
				orders,
				rooms,
				room_types,
				hotels,
				amenities,
				posts,
				users
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed hotels with room types
	hotels := []*entities.Hotel{
		{
			Name:        "Harbor View Hotel",
			Description: "Waterfront rooms above the old marina.",
			AddressLine: "1 Marina Road",
			City:        "Lagos",
			Location:    entities.Location{Latitude: 6.4281, Longitude: 3.4219},
			Rating:      4.6,
			IsActive:    true,
			RoomTypes: []entities.RoomType{
				{Name: "Standard", BasePrice: 10000, Capacity: 2},
				{Name: "Deluxe", BasePrice: 18000, Capacity: 2},
				{Name: "Suite", BasePrice: 35000, Capacity: 4},
			},
		},
		{
			Name:        "Savannah Court",
			Description: "Garden courtyard, ten minutes from the airport.",
			AddressLine: "22 Acacia Avenue",
			City:        "Nairobi",
			Location:    entities.Location{Latitude: -1.3192, Longitude: 36.9278},
			Rating:      4.2,
			IsActive:    true,
			RoomTypes: []entities.RoomType{
				{Name: "Standard", BasePrice: 8000, Capacity: 2},
				{Name: "Family", BasePrice: 15000, Capacity: 5},
			},
		},
		{
			Name:        "The Pearl Accra",
			Description: "Business hotel on the ring road.",
			AddressLine: "14 Ring Road Central",
			City:        "Accra",
			Location:    entities.Location{Latitude: 5.5716, Longitude: -0.1970},
			Rating:      4.0,
			IsActive:    true,
			RoomTypes: []entities.RoomType{
				{Name: "Standard", BasePrice: 9000, Capacity: 2},
				{Name: "Executive", BasePrice: 21000, Capacity: 2},
			},
		},
	}

	for _, h := range hotels {
		if err := hotelService.Create(ctx, h); err != nil {
			log.Printf("Failed to create hotel %s: %v", h.Name, err)
			continue
		}

		// 2. Physical rooms per room type
		for _, rt := range h.RoomTypes {
			for i := 1; i <= 4; i++ {
				_, err := pgClient.DB().ExecContext(ctx,
					`INSERT INTO rooms (id, room_type_id, hotel_id, name, created_at) VALUES ($1, $2, $3, $4, $5)`,
					uuid.New().String(), rt.ID, h.ID, fmt.Sprintf("%s %d", rt.Name, i), time.Now(),
				)
				if err != nil {
					log.Printf("Failed to create room for %s/%s: %v", h.Name, rt.Name, err)
				}
			}
		}
	}

	// 3. Amenities
	amenities := []*entities.Amenity{
		{Name: "Breakfast", Description: "Continental breakfast buffet", Price: 1500, InService: true},
		{Name: "Spa Access", Description: "Day pass to the spa and sauna", Price: 5000, InService: true},
		{Name: "Airport Pickup", Description: "One-way airport transfer", Price: 3000, InService: true},
		{Name: "Late Checkout", Description: "Checkout until 4pm", Price: 2000, InService: true},
	}
	for _, a := range amenities {
		a.ID = uuid.New().String()
		a.CreatedAt = time.Now()
		a.UpdatedAt = a.CreatedAt
		if err := amenityRepo.Create(ctx, a); err != nil {
			log.Printf("Failed to create amenity %s: %v", a.Name, err)
		}
	}

	// 4. Posts
	posts := []*entities.Post{
		{Title: "Rainy season rates", Description: "Discounted stays through October", Content: "Book a Standard room at any of our city hotels and save 20%."},
		{Title: "New spa wing at Harbor View", Description: "Now open", Content: "The Harbor View spa wing opens this month with day passes available."},
	}
	for _, p := range posts {
		p.ID = uuid.New().String()
		p.CreatedAt = time.Now()
		if err := postRepo.Create(ctx, p); err != nil {
			log.Printf("Failed to create post %s: %v", p.Title, err)
		}
	}

	// 5. Users
	users := []struct {
		name  string
		email string
		role  string
	}{
		{"Ada Obi", "ada@example.com", "customer"},
		{"Kwame Mensah", "kwame@example.com", "customer"},
		{"Grace Wanjiru", "grace@leafhq.example", "staff"},
		{"Tunde Bakare", "tunde@leafhq.example", "admin"},
	}
	for _, u := range users {
		_, err := pgClient.DB().ExecContext(ctx,
			`INSERT INTO users (id, name, email, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), u.name, u.email, u.role, time.Now(),
		)
		if err != nil {
			log.Printf("Failed to create user %s: %v", u.name, err)
		}
	}

	log.Println("Seeding complete")
}
