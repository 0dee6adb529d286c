package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // Import pprof for profiling
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/petalworks/flowershop-backend/internal/di"
	"github.com/petalworks/flowershop-backend/internal/handler"
	"github.com/petalworks/flowershop-backend/internal/metrics"
	"github.com/petalworks/flowershop-backend/internal/repository"
	"github.com/petalworks/flowershop-backend/internal/service"
	"github.com/petalworks/flowershop-backend/internal/session"
	"github.com/petalworks/flowershop-backend/pkg/config"
	"github.com/petalworks/flowershop-backend/pkg/database"
	"github.com/petalworks/flowershop-backend/pkg/logger"
	"github.com/petalworks/flowershop-backend/pkg/middleware"
	pkgredis "github.com/petalworks/flowershop-backend/pkg/redis"
	"github.com/petalworks/flowershop-backend/pkg/telemetry"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if cfg.App.Debug {
		logCfg.Level = "debug"
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting flowershop backend...")

	ctx := context.Background()

	// Initialize tracing
	_, err = telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Telemetry init failed: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
	}

	// Initialize the shared connection pool
	db, err := database.Shared(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
		ServiceName:     cfg.App.Name,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)",
		cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns))

	// Redis backs the session store and the idempotency middleware. Only
	// connect when sessions live there; in-memory sessions need neither.
	var redisClient *pkgredis.Client
	if cfg.Session.Store == "redis" {
		redisClient, err = pkgredis.NewClient(ctx, &pkgredis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			PoolSize:      cfg.Redis.PoolSize,
			MinIdleConns:  cfg.Redis.MinIdleConns,
			DialTimeout:   cfg.Redis.DialTimeout,
			ReadTimeout:   cfg.Redis.ReadTimeout,
			WriteTimeout:  cfg.Redis.WriteTimeout,
			MaxRetries:    3,
			RetryInterval: time.Second,
		})
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
		}
		appLog.Info("Redis connected")
	}

	// Session registry on top of the configured store
	var sessionStore session.Store
	if redisClient != nil {
		sessionStore = session.NewRedisStore(redisClient)
	} else {
		sessionStore = session.NewMemoryStore(cfg.Session.SweepInterval)
	}
	sessions := session.NewRegistry(sessionStore)

	// Stock event publisher; fall back to no-op when the broker is down
	var eventPublisher service.EventPublisher = service.NewNoOpEventPublisher()
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			ServiceName: cfg.App.Name,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		} else {
			eventPublisher = kafkaPublisher
			appLog.Info("Kafka event publisher connected")
		}
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		Sessions:       sessions,
		ProductRepo:    repository.NewPostgresProductRepository(db.Pool()),
		UserRepo:       repository.NewPostgresUserRepository(db.Pool()),
		EventPublisher: eventPublisher,
	})
	defer container.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		gin.DisableConsoleColor()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))
	}
	router.Use(container.Authenticator.Authenticate())

	// Health and ops endpoints
	router.GET("/health/live", container.HealthHandler.Live)
	router.GET("/health/ready", container.HealthHandler.Ready)
	router.GET("/metrics", container.HealthHandler.Stats)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"version": cfg.App.Version,
				"service": cfg.App.Name,
			})
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/register", container.UserHandler.Register)
			auth.POST("/login", container.UserHandler.Login)
			auth.POST("/logout", container.UserHandler.Logout)
			auth.GET("/me", handler.RequireAuth(), container.UserHandler.Me)
		}

		users := v1.Group("/users", handler.RequireAuth())
		{
			users.GET("/:id", container.UserHandler.Get)
		}

		products := v1.Group("/products")
		{
			products.GET("", container.ProductHandler.List)
			products.POST("/search", container.ProductHandler.List)
			products.GET("/:id", container.ProductHandler.Get)

			// mutations need a session; catalog management needs admin
			products.POST("", handler.RequireAdmin(), container.ProductHandler.Create)
			products.PUT("/:id", handler.RequireAdmin(), container.ProductHandler.Update)
			products.DELETE("/:id", handler.RequireAdmin(), container.ProductHandler.Delete)

			stock := products.Group("", handler.RequireAuth())
			if redisClient != nil {
				stock.Use(middleware.Idempotency(middleware.DefaultIdempotencyConfig(redisClient.Client())))
			}
			stock.POST("/:id/stock", container.ProductHandler.AdjustStock)
			stock.POST("/:id/buy", container.ProductHandler.Buy)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// pprof on a side port
	go func() {
		pprofAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port+1000)
		appLog.Info(fmt.Sprintf("pprof server listening on %s", pprofAddr))
		if err := http.ListenAndServe(pprofAddr, nil); err != nil {
			appLog.Error(fmt.Sprintf("pprof server error: %v", err))
		}
	}()

	go func() {
		appLog.Info(fmt.Sprintf("Flowershop backend listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
