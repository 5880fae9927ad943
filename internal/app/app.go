// Package app wires configuration, clients, services and HTTP routes together.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/internal/apperrors"
	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/logger"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/secrets"
	"catalog/internal/services"
	"catalog/internal/storage"
	"catalog/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Dependencies are the already-constructed collaborators of the HTTP app.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Products repositories.ProductRepository
	Storage  storage.ObjectStorage
	Events   services.EventPublisher
}

// NewFiberApp builds the product service and registers all routes.
func NewFiberApp(deps Dependencies) *fiber.App {
	cfg := deps.Config

	var opts []services.Option
	if deps.Events != nil {
		opts = append(opts, services.WithEventPublisher(deps.Events))
	}
	productService := services.NewProductService(
		deps.Products,
		deps.Storage,
		services.StorageSettings{Bucket: cfg.Storage.Bucket, PublicBaseURL: cfg.Storage.PublicBaseURL},
		deps.Logger,
		opts...,
	)
	productHandler := handlers.NewProductHandler(productService, deps.Logger)

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	var uploadGuards []fiber.Handler
	if cfg.Auth.JWTSecret != "" {
		uploadGuards = append(uploadGuards, middleware.BearerRequired(cfg.Auth.JWTSecret))
	}

	apiV1 := app.Group("/api/v1")
	productHandler.RegisterRoutes(apiV1, uploadGuards...)

	return app
}

// errorHandler reports bodies over the transport limit the same way the
// service reports an oversized image.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code == fiber.StatusRequestEntityTooLarge {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   apperrors.InvalidInput("image too large").Error(),
		})
	}
	return fiber.DefaultErrorHandler(c, err)
}

// App is a fully bootstrapped service.
type App struct {
	Fiber   *fiber.App
	db      *gorm.DB
	mq      *rabbitmq.Client
	log     *logger.Logger
	address string
}

// Bootstrap resolves the database (via the secret store in prod), the object
// storage client and the optional event publisher, then builds the HTTP app.
func Bootstrap(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	var secretSource database.SecretSource
	if cfg.IsProduction() {
		manager, err := secrets.NewManager(ctx, cfg.Secrets.Region, log)
		if err != nil {
			return nil, apperrors.WrapConfiguration("init secret store client", err)
		}
		secretSource = manager
	}

	info, err := database.ResolveConnection(ctx, cfg, secretSource)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(info, log)
	if err != nil {
		return nil, err
	}

	a := &App{db: db, log: log, address: cfg.Server.Port}

	store, err := newStorage(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	var events services.EventPublisher
	if cfg.Events.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.Events.RabbitMQURL})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init RabbitMQ client: %w", err)
		}
		a.mq = mq
		events = mq
		log.Info("product events enabled", "queue", rabbitmq.ProductEventsQueue)
	}

	a.Fiber = NewFiberApp(Dependencies{
		Config:   cfg,
		Logger:   log,
		Products: repositories.NewGORMProductRepository(db),
		Storage:  store,
		Events:   events,
	})
	return a, nil
}

func newStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.ObjectStorage, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn("using in-memory object storage; images are lost on restart")
		return storage.NewMemoryStorage(), nil
	}
	s3, err := storage.NewS3Storage(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	return s3, nil
}

// Listen serves HTTP until Shutdown is called.
func (a *App) Listen() error {
	a.log.Info("starting server", "address", a.address)
	return a.Fiber.Listen(a.address)
}

// Shutdown stops accepting requests and releases every resource.
func (a *App) Shutdown() error {
	var errs []error
	if a.Fiber != nil {
		if err := a.Fiber.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases the database and message broker connections.
func (a *App) Close() error {
	var errs []error
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
		a.mq = nil
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		a.db = nil
	}
	return errors.Join(errs...)
}
