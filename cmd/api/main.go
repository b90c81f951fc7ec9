package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leafhq/leaf/backend/internal/adapters/cache"
	"github.com/leafhq/leaf/backend/internal/adapters/database"
	"github.com/leafhq/leaf/backend/internal/adapters/events"
	"github.com/leafhq/leaf/backend/internal/adapters/pricing"
	"github.com/leafhq/leaf/backend/internal/adapters/search"
	"github.com/leafhq/leaf/backend/internal/api/handlers"
	"github.com/leafhq/leaf/backend/internal/api/middleware"
	"github.com/leafhq/leaf/backend/internal/api/routes"
	"github.com/leafhq/leaf/backend/internal/application/services"
	"github.com/leafhq/leaf/backend/internal/domain/providers"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	"github.com/leafhq/leaf/backend/internal/infrastructure/clients/postgres"
	"github.com/leafhq/leaf/backend/internal/infrastructure/clients/redis"
	"github.com/leafhq/leaf/backend/internal/infrastructure/clients/typesense"
	"github.com/leafhq/leaf/backend/internal/infrastructure/observability"
	"github.com/leafhq/leaf/backend/pkg/config"
)

func main() {

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		typesenseClient = nil
	} else {
		log.Println("Typesense client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Initialize adapters

	holdWindow := time.Duration(cfg.Booking.PendingHoldMinutes) * time.Minute
	claimTimeout := time.Duration(cfg.Booking.ClaimTimeoutSeconds) * time.Second

	// Create base hotel adapter
	baseHotelAdapter := database.NewHotelAdapter(pgClient)

	// Wrap with caching if Redis is available (for read performance optimization)
	var hotelAdapter repositories.HotelRepository
	if cacheProvider != nil {
		hotelAdapter = database.NewCachedHotelAdapter(baseHotelAdapter, cacheProvider)
		log.Println("Hotel adapter wrapped with caching layer")
	} else {
		hotelAdapter = baseHotelAdapter
		log.Println("Hotel adapter running without cache (Redis unavailable)")
	}

	bookingAdapter := database.NewBookingAdapter(pgClient, holdWindow)
	roomAdapter := database.NewRoomAdapter(pgClient)
	amenityAdapter := database.NewAmenityAdapter(pgClient)
	orderAdapter := database.NewOrderAdapter(pgClient)
	postAdapter := database.NewPostAdapter(pgClient)
	userAdapter := database.NewUserAdapter(pgClient)

	var searchRepo repositories.HotelSearchRepository

	if typesenseClient != nil {

		adapter := search.NewTypesenseAdapter(typesenseClient)

		// Ensure schema exists

		if err := adapter.InitSchema(context.Background()); err != nil {

			log.Printf("Warning: Failed to init Typesense schema: %v", err)

		}

		searchRepo = adapter

	}

	// Pricing policy. The seasonal adapter subsumes the flat one, so it is
	// only wired when a weekend multiplier is actually configured.
	var pricingPolicy providers.PricingPolicy
	if cfg.Pricing.WeekendMultiplier != 1.0 {
		pricingPolicy = pricing.NewSeasonalAdapter(cfg.Pricing.WeekendMultiplier, nil)
		log.Printf("Seasonal pricing enabled (weekend multiplier %.2f)", cfg.Pricing.WeekendMultiplier)
	} else {
		pricingPolicy = pricing.NewBaseRateAdapter()
	}

	// Initialize services

	reservationService := services.NewReservationService(
		bookingAdapter,
		roomAdapter,
		hotelAdapter,
		pricingPolicy,
		eventBus,
		metrics,
		holdWindow,
		claimTimeout,
	)

	hotelService := services.NewHotelService(hotelAdapter, searchRepo, eventBus)
	orderService := services.NewOrderService(orderAdapter, amenityAdapter)

	// Initialize handlers

	hotelHandler := handlers.NewHotelHandler(hotelService)
	bookingHandler := handlers.NewBookingHandler(reservationService)
	amenityHandler := handlers.NewAmenityHandler(amenityAdapter)
	orderHandler := handlers.NewOrderHandler(orderService)
	postHandler := handlers.NewPostHandler(postAdapter)
	staffHandler := handlers.NewStaffHandler(userAdapter)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router

	router := routes.NewRouter(
		hotelHandler,
		bookingHandler,
		amenityHandler,
		orderHandler,
		postHandler,
		staffHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
