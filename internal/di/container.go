package di

import (
	"github.com/petalworks/flowershop-backend/internal/handler"
	"github.com/petalworks/flowershop-backend/internal/repository"
	"github.com/petalworks/flowershop-backend/internal/service"
	"github.com/petalworks/flowershop-backend/internal/session"
	"github.com/petalworks/flowershop-backend/pkg/database"
	"github.com/petalworks/flowershop-backend/pkg/redis"
)

// Container holds all dependencies for the backend
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Redis    *redis.Client
	Sessions *session.Registry

	// Repositories
	ProductRepo repository.ProductRepository
	UserRepo    repository.UserRepository

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	ProductService service.ProductService
	UserService    service.UserService

	// Handlers
	HealthHandler  *handler.HealthHandler
	ProductHandler *handler.ProductHandler
	UserHandler    *handler.UserHandler
	Authenticator  *handler.Authenticator
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	Sessions       *session.Registry
	ProductRepo    repository.ProductRepository
	UserRepo       repository.UserRepository
	EventPublisher service.EventPublisher
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		Sessions:       cfg.Sessions,
		ProductRepo:    cfg.ProductRepo,
		UserRepo:       cfg.UserRepo,
		EventPublisher: cfg.EventPublisher,
	}

	// Initialize services
	c.ProductService = service.NewProductService(c.ProductRepo, c.EventPublisher)
	c.UserService = service.NewUserService(c.UserRepo, c.Sessions)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.ProductHandler = handler.NewProductHandler(c.ProductService)
	c.UserHandler = handler.NewUserHandler(c.UserService)
	c.Authenticator = handler.NewAuthenticator(c.Sessions)

	return c
}

// Close releases container-owned resources
func (c *Container) Close() {
	if c.EventPublisher != nil {
		_ = c.EventPublisher.Close()
	}
	if c.Sessions != nil {
		_ = c.Sessions.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
