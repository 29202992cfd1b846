package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-site-inventory/internal/config"
	"go-site-inventory/internal/handler"
	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/logger"
	"go-site-inventory/internal/middleware"
	"go-site-inventory/internal/repository"
	"go-site-inventory/internal/service"
	"go-site-inventory/internal/storage"
	"go-site-inventory/internal/ws"
	"go-site-inventory/pkg/database"
	"go-site-inventory/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg, err := config.Load(os.Getenv(config.EnvPrefix + "_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	appLog := logger.New(cfg.Log.Level)
	slog.SetDefault(appLog)

	if cfg.Ledger.DefaultRodLength > 0 {
		ledger.DefaultRodLength = decimal.NewFromFloat(cfg.Ledger.DefaultRodLength)
	}
	tolerance, err := decimal.NewFromString(cfg.Ledger.TallyTolerance)
	if err != nil {
		log.Fatalf("config: ledger.tally_tolerance: %v", err)
	}

	// 2. Setup Database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(appLog)
	go wsHub.Run(ctx)

	// 4. Dependency Injection (Wiring Layers)
	signer := jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	store, err := storage.NewLocal(cfg.Storage.Root, cfg.HTTP.PublicURL+"/files", cfg.Storage.MaxBytes, signer)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	siteRepo := repository.NewSiteRepo(db)
	userRepo := repository.NewUserRepo(db)
	ledgerRepos := []repository.LedgerRepository{
		repository.NewSteelRepo(db),
		repository.NewCementRepo(db),
		repository.NewDieselRepo(db),
	}

	authService := service.NewAuthService(userRepo, signer, time.Duration(cfg.JWT.ExpireHours)*time.Hour, appLog)
	invService := service.NewInventoryService(db, siteRepo, ledgerRepos, store, wsHub, appLog)
	reportService := service.NewReportService(db, siteRepo, invService, ledgerRepos, tolerance, appLog)
	dashService := service.NewDashboardService(siteRepo, ledgerRepos)
	siteService := service.NewSiteService(siteRepo)

	// 5. Seed the first admin account
	if created, err := authService.EnsureAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
		appLog.Warn("admin seed failed", "err", err)
	} else if created {
		appLog.Info("admin user created; change the password after first login", "email", cfg.Admin.Email)
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   cfg.HTTP.AppName,
		BodyLimit: int(cfg.Storage.MaxBytes) + 1<<20,
	})

	// Middleware
	app.Use(fiberlogger.New()) // Logging request
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	// 7. Routes
	handler.RegisterRoutes(app, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Sites:     handler.NewSiteHandler(siteService),
		Inventory: handler.NewInventoryHandler(invService),
		Reports:   handler.NewReportHandler(reportService, invService),
		Dashboard: handler.NewDashboardHandler(dashService),
		Files:     handler.NewFileHandler(store, cfg.Storage.URLTTL),
	}, middleware.RequireAuth(authService))

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(503).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// WebSocket Route; ?site=<id> limits events to one site
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("site", c.Query("site"))
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		site, _ := c.Locals("site").(string)
		select {
		case wsHub.Register <- ws.Client{Conn: c, SiteID: site}:
		case <-ctx.Done():
			return
		}
		defer func() {
			select {
			case wsHub.Unregister <- c:
			case <-ctx.Done():
			}
		}()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.HTTP.Port); err != nil {
			log.Panic(err)
		}
	}()

	<-ctx.Done()

	appLog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	appLog.Info("server exited")
}
