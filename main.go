package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"blackmarket-trader/internal/api"
	"blackmarket-trader/internal/config"
	"blackmarket-trader/internal/database"
	"blackmarket-trader/internal/services/auth"
	"blackmarket-trader/internal/services/catalog"
	"blackmarket-trader/internal/services/eventoutput"
	"blackmarket-trader/internal/services/events"
	"blackmarket-trader/internal/services/inventory"
	"blackmarket-trader/internal/services/market"
	"blackmarket-trader/internal/services/payment"
	"blackmarket-trader/internal/services/price"
	"blackmarket-trader/internal/services/stock"
	"blackmarket-trader/internal/services/traders"
	"blackmarket-trader/internal/services/trading"
	"blackmarket-trader/internal/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}

	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Blackmarket.VerboseLogging {
		logrus.SetLevel(logrus.DebugLevel)
	}
	log := logrus.WithField("component", "blackmarket")

	ctx := context.Background()

	// Initialize database
	db, err := database.Initialize(cfg.Database.URL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	seed, err := database.LoadSeed(cfg.Database.SeedFile)
	if err != nil {
		logrus.Fatalf("Failed to load seed data: %v", err)
	}
	if err := database.Seed(ctx, db, seed); err != nil {
		logrus.Fatalf("Failed to seed database: %v", err)
	}

	templates := catalog.NewStore(db)
	if err := templates.Load(ctx); err != nil {
		logrus.Fatalf("Failed to load item catalog: %v", err)
	}

	// Market prices
	var fetcher market.Fetcher = market.StaticFeed(seed.Prices)
	if cfg.Market.BaseURL != "" {
		fetcher = market.NewClient(cfg.Market.BaseURL, cfg.Market.Timeout)
	}
	var cache market.Cache
	if rdb := database.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); rdb != nil {
		defer rdb.Close()
		cache = market.NewRedisCache(rdb)
	}
	marketService := market.NewMarketService(fetcher, cache, logrus.WithField("component", "market"))
	if err := marketService.Refresh(ctx); err != nil {
		log.WithError(err).Warn("Starting without market prices")
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logrus.WithField("component", "websocket"))
	go wsHub.Run()
	defer wsHub.Stop()

	resolver := price.NewResolver(templates, marketService, price.Options{
		IgnoreMarketEligibility: cfg.Blackmarket.IgnoreMarketEligibility,
		ExportToFile:            cfg.Blackmarket.ExportPriceTableToFile,
		ExportPath:              cfg.Blackmarket.ExportPath,
	}, log)
	resolver.OnRebuild(wsHub.BroadcastPriceTable)
	if _, err := resolver.ResolveAll(); err != nil {
		logrus.Fatalf("Failed to build price table: %v", err)
	}

	// Initialize services
	outputs := eventoutput.NewHolder()
	inventoryService := inventory.NewInventoryService(db, logrus.WithField("component", "inventory"))
	paymentService := payment.NewPaymentService(db, templates, logrus.WithField("component", "payment"))
	stockService := stock.NewStockService(templates, inventoryService, paymentService, outputs, logrus.WithField("component", "stock"))
	sellService := trading.NewSellService(resolver, inventoryService, paymentService, outputs, trading.SellOptions{
		IgnoreFoundInRaidRequirement: cfg.Blackmarket.IgnoreFoundInRaidRequirement,
	}, log)
	tradingService := trading.NewTradingService(cfg.Trader.ID, stockService, sellService, log)

	publisher := events.Connect(cfg.NATS.URL, cfg.NATS.Subject, logrus.WithField("component", "events"))
	defer publisher.Close()
	tradingService.AddObserver(publisher)
	tradingService.AddObserver(wsHub)

	authService := auth.NewService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Register the trader
	base, err := traders.LoadBase()
	if err != nil {
		logrus.Fatalf("Failed to load trader base: %v", err)
	}
	base.ID = cfg.Trader.ID
	registrar := traders.NewRegistrar(db, base, cfg.Trader.AvatarDir, cfg.Trader.RefreshSeconds, logrus.WithField("component", "traders"))
	if err := registrar.Register(ctx); err != nil {
		logrus.Fatalf("Failed to register trader: %v", err)
	}

	scheduler := traders.NewScheduler(db, logrus.WithField("component", "scheduler"))
	if err := scheduler.ScheduleResupply(base.ID, cfg.Trader.RefreshSeconds); err != nil {
		logrus.Fatalf("Failed to schedule resupply: %v", err)
	}
	if err := scheduler.AddFunc(cfg.Market.RefreshCron, func() {
		if err := marketService.Refresh(context.Background()); err != nil {
			log.WithError(err).Warn("Market refresh failed")
		}
	}); err != nil {
		logrus.Fatalf("Invalid market refresh schedule: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize Gin router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), api.LoggerMiddleware(logrus.WithField("component", "http")), api.CORSMiddleware())

	avatarRoute, avatarFile := registrar.AvatarRoute()
	api.SetupRoutes(router, api.Dependencies{
		Auth:        authService,
		Profiles:    inventoryService,
		Outputs:     outputs,
		Trading:     tradingService,
		Prices:      resolver,
		Hub:         wsHub,
		AvatarRoute: avatarRoute,
		AvatarFile:  avatarFile,
		Log:         logrus.WithField("component", "api"),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	logrus.Infof("Server started on port %d", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
