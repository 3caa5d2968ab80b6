package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/creatorhub/storefront/internal/auth"
	"github.com/creatorhub/storefront/internal/cart"
	cartcache "github.com/creatorhub/storefront/internal/cart/cache"
	"github.com/creatorhub/storefront/internal/cart/poller"
	cartrepo "github.com/creatorhub/storefront/internal/cart/repository"
	"github.com/creatorhub/storefront/internal/checkout"
	"github.com/creatorhub/storefront/internal/fulfillment"
	h "github.com/creatorhub/storefront/internal/httpapi"
	ordersrepo "github.com/creatorhub/storefront/internal/orders/repository"
	"github.com/creatorhub/storefront/internal/payments"
)

type Config struct {
	HTTPPort            string
	MongoURI            string
	MongoDBName         string
	RedisAddr           string
	RedisPassword       string
	PostgresHost        string
	PostgresPort        int
	PostgresUser        string
	PostgresPassword    string
	PostgresDB          string
	MigrationsDir       string
	KafkaBrokers        []string
	StripeSecretKey     string
	StripeWebhookSecret string
	PublicOrigin        string
	RequestTimeout      time.Duration
	ShutdownTimeout     time.Duration
	MaxRequestBodySize  int64
}

func loadConfig() *Config {
	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		log.Fatalf("invalid POSTGRES_PORT: %v", err)
	}

	return &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:         getEnv("MONGO_DB_NAME", "storefront"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		PostgresHost:        getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:        pgPort,
		PostgresUser:        getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:    getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:          getEnv("POSTGRES_DB", "storefront"),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "migrations"),
		KafkaBrokers:        strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		StripeSecretKey:     mustGetEnv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: mustGetEnv("STRIPE_WEBHOOK_SECRET"),
		PublicOrigin:        getEnv("PUBLIC_ORIGIN", "http://localhost:3000"),
		RequestTimeout:      30 * time.Second,
		ShutdownTimeout:     10 * time.Second,
		MaxRequestBodySize:  1 << 20, // 1MB
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s is required", key)
	}
	return value
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	// Cart storage
	mongoDB, err := cartrepo.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(ctx)

	cartRepo := cartrepo.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	cache := cartcache.NewRedisCache(redisClient)
	cartService := cart.NewService(cartRepo, cache)

	// Orders storage
	creds := &ordersrepo.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.MigrationsDir,
	}
	ordersRepo, err := ordersrepo.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer ordersRepo.Close()
	if err := ordersRepo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to postgres at %s:%d", cfg.PostgresHost, cfg.PostgresPort)

	// Payments
	gateway := payments.NewStripeGateway(cfg.StripeSecretKey)
	verifier := payments.NewStripeVerifier(cfg.StripeWebhookSecret)
	checkoutService := checkout.NewService(gateway, ordersRepo, cartService)

	// Fulfillment
	publisher := fulfillment.NewKafkaPublisher(cfg.KafkaBrokers...)
	defer publisher.Close()
	fulfillmentService := fulfillment.NewService(ordersRepo, verifier, publisher)

	// Cart clearing on fulfillment
	pollerCtx, pollerCancel := context.WithCancel(ctx)
	defer pollerCancel()
	cartPoller := poller.NewPoller(cartRepo, cache, cfg.KafkaBrokers...)
	defer cartPoller.Close()
	go cartPoller.Run(pollerCtx)

	// Auth
	tokenVerifier := auth.NewRedisVerifier(redisClient)

	cartHandler := h.NewCartHandler(cartService, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutService, cfg.PublicOrigin, cfg.RequestTimeout)
	webhookHandler := h.NewWebhookHandler(fulfillmentService, cfg.MaxRequestBodySize, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(ordersRepo, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.CORSMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Webhook endpoint stays outside auth: the processor signs its
	// requests instead of carrying a bearer token.
	r.Post("/webhooks/payment", webhookHandler.HandleEvent)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware(tokenVerifier))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{package_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{package_id}", cartHandler.RemoveItem)
			r.Put("/shipping", cartHandler.UpdateShippingInfo)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/payment-intent", checkoutHandler.CreatePaymentIntent)
			r.Post("/session", checkoutHandler.CreateCheckoutSession)
		})

		r.Get("/orders", ordersHandler.ListOrders)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront API starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	pollerCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
