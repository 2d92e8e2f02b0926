package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"taniconnect_back_end/internal/cache"
	"taniconnect_back_end/internal/config"
	"taniconnect_back_end/internal/database"
	"taniconnect_back_end/internal/handlers"
	"taniconnect_back_end/internal/handlers/admin"
	"taniconnect_back_end/internal/handlers/order"
	"taniconnect_back_end/internal/handlers/webhooks"
	"taniconnect_back_end/internal/middleware"
	"taniconnect_back_end/internal/repository"
	"taniconnect_back_end/internal/routes"
	"taniconnect_back_end/internal/services/archive"
	"taniconnect_back_end/internal/services/audit"
	"taniconnect_back_end/internal/services/notify"
	"taniconnect_back_end/internal/services/orders"
	"taniconnect_back_end/internal/services/payment"
	"taniconnect_back_end/internal/services/pricing"
	"taniconnect_back_end/internal/services/search"
	"taniconnect_back_end/internal/services/stream"
	"taniconnect_back_end/internal/services/webhook"
)

func main() {
	config.Load()
	cfg := config.FromEnv()

	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET is not set")
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conns, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer conns.Close(context.Background())

	gateway, err := newGateway(cfg.Payment)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("💳 Payment provider: %s", gateway.Provider())

	orderRepo := repository.NewOrderRepository(conns.Mongo)
	if err := orderRepo.CreateIndexes(ctx); err != nil {
		log.Printf("⚠️ %v", err)
	}
	productRepo := repository.NewProductRepository(conns.Mongo)
	users := cache.NewUserCache(conns.Redis, repository.NewUserRepository(conns.Mongo))
	statuses := stream.NewStatusStream(conns.Redis)

	orchestrator := orders.NewOrchestrator(
		pricing.NewRecalculator(productRepo),
		gateway,
		orderRepo,
		repository.NewCartStore(conns.Redis),
	)
	processor := webhook.NewProcessor(orderRepo, cfg.Payment.MidtransServerKey).
		WithStripeSecret(cfg.Payment.StripeWebhookKey).
		OnStatusChange(statuses)
	if cfg.Payment.MidtransServerKey != "" {
		processor.WithStatusLookup(payment.NewMidtransStatusClient(
			cfg.Payment.MidtransServerKey, cfg.Payment.MidtransProduction, cfg.Payment.Timeout))
	}

	var (
		searcher admin.OrderSearcher
		events   admin.EventLister
	)

	if conns.Scylla != nil {
		trail := audit.NewScyllaLog(conns.Scylla)
		if err := trail.Migrate(ctx); err != nil {
			log.Fatalf("❌ %v", err)
		}
		orchestrator.WithIncidents(trail)
		processor.WithAudit(trail)
		events = trail
	}
	if conns.Elastic != nil {
		index := search.NewOrderIndex(conns.Elastic)
		orchestrator.WithIndexer(index)
		processor.OnStatusChange(index)
		searcher = index
	}
	if conns.MinIO != nil {
		processor.WithArchive(archive.NewMinioArchive(conns.MinIO, cfg.MinioBucket))
	}
	if cfg.SMTP.Enabled() {
		mailer, err := notify.NewMailer(cfg.SMTP, cfg.FrontendURL)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		processor.OnStatusChange(mailer)
		log.Println("✅ Order e-mails enabled")
	} else {
		log.Println("⚠️ SMTP_HOST not set, order e-mails disabled")
	}

	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Dependencies{
		JWTSecret: []byte(cfg.JWTSecret),
		Users:     users,
		Redis:     conns.Redis,
		Orders:    order.NewHandler(orchestrator, orderRepo, statuses).WithAllowedOrigins(cfg.CORSOrigins),
		Webhooks:  webhooks.NewHandler(processor),
		Admin:     admin.NewHandler(searcher, events),
		Health: handlers.Health(map[string]handlers.Pinger{
			"mongo": func(ctx context.Context) error { return conns.Mongo.Client().Ping(ctx, nil) },
			"redis": func(ctx context.Context) error { return conns.Redis.Ping(ctx).Err() },
		}),
		MidtransWebhook: cfg.Payment.MidtransServerKey != "",
		StripeWebhook:   cfg.Payment.StripeWebhookKey != "",
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("🚀 TaniConnect API listening on port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🔌 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Shutdown: %v", err)
	}
}

func newGateway(cfg config.PaymentConfig) (payment.Gateway, error) {
	switch cfg.Provider {
	case payment.ProviderMidtrans:
		if cfg.MidtransServerKey == "" {
			return nil, errors.New("MIDTRANS_SERVER_KEY is not set")
		}
		return payment.NewMidtransGateway(cfg.MidtransServerKey, cfg.MidtransProduction, cfg.Timeout), nil
	case payment.ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, errors.New("STRIPE_SECRET_KEY is not set")
		}
		return payment.NewStripeGateway(cfg.StripeSecretKey, cfg.Currency, cfg.Timeout), nil
	default:
		return nil, errors.New("unknown PAYMENT_PROVIDER " + cfg.Provider)
	}
}
