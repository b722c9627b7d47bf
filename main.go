package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
	"gorm.io/gorm"

	"market/internal/config"
	"market/internal/database"
	"market/internal/handlers"
	"market/internal/logger"
	"market/internal/middleware"
	"market/internal/models"
	"market/internal/repositories"
	"market/internal/services"
	"market/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)

	app, cleanup, err := NewApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build application")
	}
	defer cleanup()

	go func() {
		log.Info().Str("addr", cfg.AppPort).Str("driver", cfg.DBDriver).Msg("starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during Fiber shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}

// storage bundles the repositories of one backend.
type storage struct {
	products repositories.ProductRepository
	sales    repositories.SaleRepository
	users    repositories.UserRepository
	tx       repositories.Transactor
	ping     func() error
	close    func() error
}

func openStorage(cfg *config.Config) (*storage, error) {
	if cfg.DBDriver == config.DriverMemory {
		products := repositories.NewMemoryProductRepository()
		sales := repositories.NewMemorySaleRepository()
		return &storage{
			products: products,
			sales:    sales,
			users:    repositories.NewMemoryUserRepository(),
			tx:       repositories.NewMemoryTransactor(products, sales),
			close:    func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	return &storage{
		products: repositories.NewGORMProductRepository(db),
		sales:    repositories.NewGORMSaleRepository(db),
		users:    repositories.NewGORMUserRepository(db),
		tx:       repositories.NewGORMTransactor(db),
		ping:     func() error { return database.Ping(db) },
		close:    func() error { return closeDB(db) },
	}, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewApp wires storage, messaging, services and routes into a Fiber app.
// The returned cleanup releases the database and broker connections.
func NewApp(cfg *config.Config) (*fiber.App, func(), error) {
	store, err := openStorage(cfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{store.close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Error().Err(err).Msg("error during cleanup")
			}
		}
	}

	var publisher services.EventPublisher
	brokerStatus := "disabled"
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, mqClient.Close)
		if err := mqClient.ConsumeSaleEvents(logSaleEvent); err != nil {
			cleanup()
			return nil, nil, err
		}
		publisher = mqClient
		brokerStatus = "connected"
	}

	if cfg.SeedDemoData {
		seedProducts(context.Background(), store.products)
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = uuid.New().String()
		log.Warn().Msg("JWT_SECRET not set, tokens will not survive a restart")
	}

	productService := services.NewProductService(store.products)
	saleService := services.NewSaleService(store.sales, store.products, store.tx, publisher)
	authService := services.NewAuthService(store.users, jwtSecret, cfg.TokenTTL())

	productHandler := handlers.NewProductHandler(productService)
	saleHandler := handlers.NewSaleHandler(saleService)
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(store.ping, brokerStatus)

	app := fiber.New(fiber.Config{AppName: "market"})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())

	healthHandler.RegisterRoutes(app)

	api := app.Group("/api")
	authHandler.RegisterRoutes(api)

	var guards []fiber.Handler
	if cfg.AuthRequired {
		guards = append(guards, middleware.AuthRequired(authService))
	}
	productHandler.RegisterRoutes(api, guards...)
	saleHandler.RegisterRoutes(api, guards...)

	return app, cleanup, nil
}

// logSaleEvent is the consumer side of the sale events queue.
func logSaleEvent(msg amqp.Delivery) error {
	log.Info().
		Uint64("delivery_tag", msg.DeliveryTag).
		Str("routing_key", msg.RoutingKey).
		RawJSON("body", msg.Body).
		Msg("received sale event")
	return nil
}

// seedProducts populates an empty store with a few demo products.
func seedProducts(ctx context.Context, repo repositories.ProductRepository) {
	existing, err := repo.GetAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not check products before seeding")
		return
	}
	if len(existing) > 0 {
		return
	}

	products := []models.Product{
		{Name: "Laptop", Description: "High performance laptop", Price: decimal.RequireFromString("1200.00"), QuantityInStock: 10, Active: true},
		{Name: "Keyboard", Description: "Mechanical keyboard", Price: decimal.RequireFromString("75.00"), QuantityInStock: 25, Active: true},
		{Name: "Mouse", Description: "Ergonomic wireless mouse", Price: decimal.RequireFromString("25.00"), QuantityInStock: 50, Active: true},
	}
	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			log.Error().Err(err).Str("name", products[i].Name).Msg("error seeding product")
			continue
		}
		log.Info().Str("name", products[i].Name).Str("id", products[i].ID).Msg("seeded product")
	}
}
