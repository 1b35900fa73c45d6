/**
 * @description
 * This is the main entry point for the custody service. It is responsible for
 * initializing all components of the service, including configuration, database connection,
 * external API clients, message brokers, repositories, the core application service,
 * and the HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/authclient: Client for the auth service's profile API.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/api"
	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/app"
	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/config"
	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/store"
	"github.com/DhavalFatnani/cod-dashboard-sub001/pkg/authclient"
	rmrabbit "github.com/DhavalFatnani/cod-dashboard-sub001/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting custody-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Configure connection pool for webhook bursts during delivery peaks.
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish custody events.
	// This service only needs to publish, so we use a producer.
	rabbitProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		rabbitProducer = nil
	} else {
		defer rabbitProducer.Close()
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the client for the auth service. Missing auth-service config
	// should not prevent the custody service from booting; principal resolution
	// for uncached subjects will degrade.
	var authClient *authclient.Client
	if strings.TrimSpace(cfg.AuthServiceURL) == "" || cfg.AuthServiceAPIKey == "" {
		log.Printf("level=warn component=bootstrap msg=\"auth-service client not configured; uncached principal resolution disabled\" auth_service_url_set=%t auth_service_key_set=%t",
			strings.TrimSpace(cfg.AuthServiceURL) != "",
			cfg.AuthServiceAPIKey != "",
		)
	} else {
		authClient = authclient.NewClient(cfg.AuthServiceURL, cfg.AuthServiceAPIKey)
	}

	var redisClient *redis.Client
	if cfg.WebhookRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; webhook rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; webhook rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; webhook rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	var producer rmrabbit.Publisher
	if rabbitProducer != nil {
		producer = rabbitProducer
	}
	custodyService := app.NewService(repository, authClient, producer)
	custodyService.SetEventExchange(cfg.CustodyEventExchange)
	if redisClient != nil {
		custodyService.SetWebhookRateLimiter(
			app.NewRedisWebhookRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
			cfg.WebhookRateLimitPerMinute,
		)
	}

	// Initialize the API handlers.
	custodyHandlers := api.NewCustodyHandlers(custodyService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/custody", api.CustodyRoutes(custodyHandlers, cfg.AuthJWKSURL))

	// Start the HTTP server, binding to all interfaces.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
