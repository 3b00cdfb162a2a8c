package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4" // Echo web framework
	glog "github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/room-reservation/internal/config" // Internal config loader
	"github.com/iliyamo/room-reservation/internal/database"
	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/metrics"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/router" // Internal router setup
	"github.com/iliyamo/room-reservation/internal/service"
)

func main() {
	if err := config.LoadEnvFile(); err != nil {
		log.Fatalf("load env file: %v", err)
	}
	cfg := config.Load() // Load environment config

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.ErrorHandler

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("open reservation store: %v", err)
	}

	gdb, err := database.OpenGorm(cfg.WorkOrderDSN)
	if err != nil {
		log.Fatalf("open work-order db: %v", err)
	}
	users := repository.NewUserRepo(gdb)
	if cfg.AdminPassword != "" {
		created, err := users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			log.Fatalf("seed admin user: %v", err)
		}
		if created {
			log.Printf("created admin user %q", cfg.AdminUsername)
		}
	}

	rdb := config.NewRedisClient() // nil when Redis is disabled or unreachable
	cacheCfg := config.LoadCacheConfig()
	invalidator := middleware.NewCacheInvalidator(cacheCfg, rdb)

	var publisher service.EventPublisher
	if cfg.EventsEnabled {
		publisher = queue.NewPublisher(cfg.RabbitMQURL, cfg.EventsQueue)
	}
	if cfg.EventsConsumer {
		consumer := queue.NewConsumer(cfg.RabbitMQURL, cfg.EventsQueue, cfg.EventsLogFile)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Errorf("reservation event consumer stopped: %v", err)
			}
		}()
	}

	svc := service.NewReservationService(store, service.Options{
		Location:  cfg.Location,
		Publisher: publisher,
		Logger:    e.Logger,
	})

	reg := prometheus.NewRegistry()
	router.Setup(e, router.Deps{
		JWTSecret:    cfg.JWTSecret,
		Reservations: handler.NewReservationHandler(svc, invalidator, metrics.New(reg)),
		WorkOrders:   handler.NewWorkOrderHandler(repository.NewWorkOrderRepo(gdb), invalidator),
		Auth:         handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(gdb)),
		Health:       &handler.HealthHandler{Store: store, DB: gdb, Redis: rdb},
		Redis:        rdb,
		Cache:        cacheCfg,
		RateLimit:    config.LoadRateLimitConfig(),
		Registry:     reg,
	})

	addr := ":" + cfg.Port                                                           // Address string with port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver) // Print startup info

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) { // Start HTTP server
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	svc.Wait() // flush in-flight reservation events
	if rdb != nil {
		_ = rdb.Close()
	}
}

// openStore returns the reservation store selected by STORE_DRIVER.  The
// MySQL store gets its schema and the room catalog from ROOMS_FILE.
func openStore(ctx context.Context, cfg config.Config) (repository.RecordStore, error) {
	if !cfg.MySQLEnabled() {
		return repository.NewFileStore(cfg.RoomsFile, cfg.ReservationsFile)
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, err
	}
	s := repository.NewMySQLStore(db)
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	rooms, err := repository.LoadRooms(cfg.RoomsFile)
	if err != nil {
		return nil, err
	}
	if err := s.SeedRooms(ctx, rooms); err != nil {
		return nil, err
	}
	return s, nil
}

func logLevel(s string) glog.Lvl {
	switch s {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	}
	return glog.INFO
}
