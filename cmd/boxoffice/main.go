package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-boxoffice/internal/allocation"
	allocation_api "ms-boxoffice/internal/allocation/api"
	allocation_db "ms-boxoffice/internal/allocation/db"
	allocation_redis "ms-boxoffice/internal/allocation/redis"
	"ms-boxoffice/internal/auth"
	"ms-boxoffice/internal/catalog"
	catalog_api "ms-boxoffice/internal/catalog/api"
	catalog_db "ms-boxoffice/internal/catalog/db"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/database/migrations"
	"ms-boxoffice/internal/kafka"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/query"
	query_api "ms-boxoffice/internal/query/api"
	"ms-boxoffice/internal/registry"
	registry_api "ms-boxoffice/internal/registry/api"
	registry_db "ms-boxoffice/internal/registry/db"
	"ms-boxoffice/internal/registry/qr"
	"ms-boxoffice/internal/seatledger"
)

func connectDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	if cfg.Database.DSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		log.Warn("REDIS", "REDIS_ADDR not set, cross-instance seat holds disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("REDIS", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting box office service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	ctx := context.Background()
	bunDB := connectDatabase(cfg, log)
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			MigrationsDir: cfg.Database.MigrationsDir,
			AutoMigrate:   true,
		})
		if err := runner.MigrateUp(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
		}
		log.Info("DATABASE", "Migrations applied")
	}

	redisClient := connectRedis(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics)
		defer producer.Close()

		requiredTopics := []string{
			cfg.Kafka.Topics.EventCreated,
			cfg.Kafka.Topics.TicketPurchased,
			cfg.Kafka.Topics.TicketTransferred,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		log.Warn("KAFKA", "Kafka disabled, skipping event publication")
	}

	catalogDB := &catalog_db.DB{Bun: bunDB}
	ledgerDB := &seatledger.DB{Bun: bunDB}
	registryDB := &registry_db.DB{Bun: bunDB}
	allocationDB := &allocation_db.DB{Bun: bunDB}
	qrGen := qr.NewGenerator(cfg.Tickets.QRSecret)

	var catalogKafka catalog.KafkaPublisher
	var allocationKafka allocation.KafkaPublisher
	var registryKafka registry.KafkaPublisher
	if producer != nil {
		catalogKafka = producer
		allocationKafka = producer
		registryKafka = producer
	}

	var holds allocation.SeatHolder
	if redisClient != nil {
		holds = allocation_redis.NewHolds(redisClient, cfg.Redis.SeatHoldTTL)
	}

	catalogService := catalog.NewService(catalogDB, catalogKafka)
	allocationService := allocation.NewService(catalogDB, ledgerDB, allocationDB, holds, allocationKafka, qrGen)
	registryService := registry.NewService(registryDB, registryKafka)
	queryService := query.NewService(catalogDB, ledgerDB)

	catalogHandler := &catalog_api.Handler{Catalog: catalogService, Logger: log}
	allocationHandler := &allocation_api.Handler{Allocation: allocationService, Logger: log}
	registryHandler := &registry_api.Handler{Registry: registryService}
	queryHandler := &query_api.Handler{Query: queryService}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		// Organizer-only catalog writes.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth.JWTSecret))
			r.Use(auth.RequireRole(auth.RoleOrganizer))
			r.Post("/events", catalogHandler.CreateEvent)
			r.Post("/events/{eventID}/tiers", catalogHandler.CreateTier)
		})

		// Public catalog and seat projections.
		r.Get("/events", queryHandler.ListEvents)
		r.Get("/events/{eventID}", queryHandler.GetEvent)
		r.Get("/events/{eventID}/tiers", queryHandler.ListTiers)
		r.Get("/events/{eventID}/tiers/{tierID}/seats", queryHandler.SoldSeats)
		r.Get("/events/{eventID}/tiers/{tierID}/seats/{seatIndex}", queryHandler.SeatStatus)
		r.Get("/events/{eventID}/sales", queryHandler.SalesSummary)

		// Purchases and the ticket registry.
		r.Post("/events/{eventID}/tiers/{tierID}/purchase", allocationHandler.Purchase)
		r.Get("/owners/{address}/tickets", registryHandler.ListTicketsByOwner)
		r.Get("/tickets/{tokenID}", registryHandler.GetTicket)
		r.Get("/tickets/{tokenID}/owner", registryHandler.GetTicketOwner)
		r.Get("/tickets/{tokenID}/qr", registryHandler.GetTicketQR)
		r.Post("/tickets/{tokenID}/transfer", registryHandler.Transfer)
	})
	log.Info("ROUTER", "Routes registered under /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Box office service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Box office service shutdown complete")
	}
}
