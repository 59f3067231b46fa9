package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shivshakti/boutique-backend/api"
	"github.com/shivshakti/boutique-backend/api/controllers"
	"github.com/shivshakti/boutique-backend/api/routes"
	"github.com/shivshakti/boutique-backend/internal/auth"
	"github.com/shivshakti/boutique-backend/internal/notifications"
	"github.com/shivshakti/boutique-backend/internal/orders"
	"github.com/shivshakti/boutique-backend/internal/payments"
	product "github.com/shivshakti/boutique-backend/internal/products"
	"github.com/shivshakti/boutique-backend/internal/users"
	"github.com/shivshakti/boutique-backend/pkg/auth/session"
	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/db"
	"github.com/shivshakti/boutique-backend/pkg/logger"
	"github.com/shivshakti/boutique-backend/pkg/mailer"
	"github.com/shivshakti/boutique-backend/pkg/metrics"
	"github.com/shivshakti/boutique-backend/pkg/migrate"
	"github.com/shivshakti/boutique-backend/pkg/pubsub"
	"github.com/shivshakti/boutique-backend/pkg/razorpay"
	"github.com/shivshakti/boutique-backend/pkg/redis"
	"github.com/shivshakti/boutique-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var sender mailer.Sender
	if cfg.Sendgrid.Enabled() {
		m, err := mailer.New(cfg.Sendgrid)
		requireResource(ctx, logg, "mailer", err)
		sender = m
	} else {
		logg.Warn(ctx, "sendgrid not configured, otp and email alerts disabled")
	}

	var google auth.GoogleVerifier
	if cfg.Google.ClientID != "" {
		verifier, err := auth.NewIDTokenVerifier(cfg.Google.ClientID)
		requireResource(ctx, logg, "google verifier", err)
		google = verifier
	}

	userRepo := users.NewRepository(dbClient.DB())
	adminPolicy, err := users.NewAdminPolicy(cfg.App.AdminEmail, userRepo, logg)
	requireResource(ctx, logg, "admin policy", err)

	otpStore, err := auth.NewRedisOTPStore(redisClient)
	requireResource(ctx, logg, "otp store", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		AdminPolicy:    adminPolicy,
		OTPStore:       otpStore,
		Mailer:         sender,
		Google:         google,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		OTPConfig:      cfg.OTP,
		Logger:         logg,
	})
	requireResource(ctx, logg, "auth service", err)

	usersService, err := users.NewService(userRepo, cfg.Password)
	requireResource(ctx, logg, "users service", err)

	health := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	var uploader gcs.Uploader
	if cfg.GCS.Enabled() {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		requireResource(ctx, logg, "gcs", err)
		uploader = gcsClient
		health["gcs"] = gcsClient
		logg.Info(logg.WithField(ctx, "bucket", gcsClient.DefaultBucket()), "product uploads enabled")
	} else {
		logg.Warn(ctx, "gcs not configured, product uploads disabled")
	}

	var events notifications.EventPublisher
	var ordersTopic *pubsub.Topic
	var pubsubClient *pubsub.Client
	if cfg.PubSub.Enabled() {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.GCP, logg)
		requireResource(ctx, logg, "pubsub", err)
		ordersTopic, err = pubsubClient.Topic(ctx, cfg.PubSub.OrdersTopic)
		requireResource(ctx, logg, "pubsub orders topic", err)
		events = ordersTopic
	}

	productRepo := product.NewRepository(dbClient.DB())
	productService, err := product.NewService(product.ServiceParams{
		Repo:          productRepo,
		Uploader:      uploader,
		MaxImageBytes: cfg.Media.MaxUploadBytes(),
		Logger:        logg,
	})
	requireResource(ctx, logg, "products service", err)

	notifier, err := notifications.NewNotifier(
		notifications.BuildChannels(ctx, cfg, logg, sender, events, &http.Client{Timeout: cfg.Notifications.Timeout}),
		cfg.Notifications.Timeout,
		logg,
		metrics.NewNotificationMetrics(registry),
	)
	requireResource(ctx, logg, "notifier", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:         orders.NewRepository(dbClient.DB()),
		Dispatcher:   notifier,
		EnforceTotal: cfg.Orders.EnforceTotal,
		Logger:       logg,
	})
	requireResource(ctx, logg, "orders service", err)

	gateway, err := razorpay.NewClient(ctx, cfg.Razorpay, logg)
	requireResource(ctx, logg, "razorpay", err)

	verifier, err := payments.NewVerifier(gateway.KeySecret())
	requireResource(ctx, logg, "payment verifier", err)
	logg.Info(logg.WithField(ctx, "razorpay_mode", gateway.Mode()), "payments enabled")

	replay, err := payments.NewReplayGuard(redisClient, cfg.Razorpay.ReplayTTL)
	requireResource(ctx, logg, "payment replay guard", err)

	paymentService, err := payments.NewService(payments.ServiceParams{
		Gateway:  gateway,
		Verifier: verifier,
		Orders:   orderService,
		Replay:   replay,
		KeyID:    gateway.KeyID(),
		Currency: cfg.Razorpay.Currency,
		Timeout:  cfg.Razorpay.Timeout,
		Metrics:  metrics.NewPaymentMetrics(registry),
		Logger:   logg,
	})
	requireResource(ctx, logg, "payments service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
		"channels": notifier.Channels(),
	})
	logg.Info(runCtx, "starting api server")

	server := api.NewServer(addr, routes.NewRouter(routes.Dependencies{
		Config:   cfg,
		Logger:   logg,
		KV:       redisClient,
		Sessions: sessionManager,
		Health:   health,
		Metrics:  registry,
		Auth:     authService,
		Users:    usersService,
		Products: productService,
		Orders:   orderService,
		Payments: paymentService,
	}), logg)

	if err := server.Run(runCtx); err != nil {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Notifications.Timeout)
	defer cancel()
	if err := notifier.Wait(drainCtx); err != nil {
		logg.Warn(drainCtx, "order alerts still in flight at shutdown")
	}
	if ordersTopic != nil {
		ordersTopic.Stop()
	}
	if err := pubsubClient.Close(); err != nil {
		logg.Error(context.Background(), "failed to close pubsub client", err)
	}
	logg.Info(context.Background(), "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
