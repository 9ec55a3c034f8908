package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-variant-inventory/internal/audit"
	"go-variant-inventory/internal/guard"
	"go-variant-inventory/internal/handler"
	"go-variant-inventory/internal/metrics"
	"go-variant-inventory/internal/middleware"
	"go-variant-inventory/internal/repository"
	"go-variant-inventory/internal/service"
	"go-variant-inventory/internal/ws"
	"go-variant-inventory/pkg/config"
	"go-variant-inventory/pkg/database"
	"go-variant-inventory/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load Env
	cfg := config.Load()
	log := logger.Setup(cfg.IsProduction())

	// 2. Setup Database
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// 3. Reservation guard: Redis when configured, in-process otherwise
	reservationGuard, closeGuard := buildGuard(cfg)
	defer closeGuard()

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	variantRepo := repository.NewVariantRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	orderRepo := repository.NewOrderRepo(db)

	recorder := audit.NewAsyncRecorder(txRepo, cfg.AuditWorkers, cfg.AuditRetries)

	stockService := service.NewStockService(variantRepo, recorder, wsHub, db, cfg.StrictDecrements)
	reservationService := service.NewReservationService(variantRepo, reservationGuard, recorder, wsHub, db)
	variantService := service.NewVariantService(productRepo, variantRepo, wsHub, db, cfg.DefaultLowStockThreshold)
	rollupService := service.NewRollupService(productRepo, variantRepo, db)
	orderService := service.NewOrderService(orderRepo, variantRepo, reservationService, recorder, wsHub, db)
	invService := service.NewInventoryService(productRepo, txRepo, cfg.DefaultLowStockThreshold)
	dashService := service.NewDashboardService(txRepo)

	routes := handler.Routes{
		Inventory: handler.NewInventoryHandler(invService),
		Variants:  handler.NewVariantHandler(variantService, stockService, rollupService),
		Stock:     handler.NewStockHandler(stockService),
		Orders:    handler.NewOrderHandler(orderService, rollupService),
		Dashboard: handler.NewDashboardHandler(dashService),
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Variant Inventory v1.0",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())
	app.Use(middleware.Metrics())
	app.Use(middleware.RequestContext())

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// 7. Routes
	routes.Register(app.Group("/api/v1"))

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !wsHub.Join(c) {
			return
		}
		defer wsHub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	wsHub.Stop()
	recorder.Close()
	log.Info("server exited")
}

func buildGuard(cfg *config.Config) (guard.Guard, func()) {
	ttl := time.Duration(cfg.ReservationTTLHours) * time.Hour
	if cfg.RedisAddr == "" {
		logger.L.Info("REDIS_ADDR not set, using in-process reservation guard")
		return guard.NewMemoryGuard(ttl), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.L.Warn("redis unreachable, using in-process reservation guard", "addr", cfg.RedisAddr, "error", err)
		client.Close()
		return guard.NewMemoryGuard(ttl), func() {}
	}

	logger.L.Info("reservation guard backed by redis", "addr", cfg.RedisAddr)
	return guard.NewRedisGuard(client, ttl), func() { client.Close() }
}
