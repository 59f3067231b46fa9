package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shivshakti/boutique-backend/api/controllers"
	"github.com/shivshakti/boutique-backend/api/middleware"
	"github.com/shivshakti/boutique-backend/internal/auth"
	"github.com/shivshakti/boutique-backend/internal/orders"
	"github.com/shivshakti/boutique-backend/internal/payments"
	product "github.com/shivshakti/boutique-backend/internal/products"
	"github.com/shivshakti/boutique-backend/internal/users"
	"github.com/shivshakti/boutique-backend/pkg/auth/session"
	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/enums"
	"github.com/shivshakti/boutique-backend/pkg/logger"
	"github.com/shivshakti/boutique-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// kvStore is the Redis surface the HTTP layer needs for idempotency and
// rate limiting.
type kvStore interface {
	redis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Dependencies carries everything the router mounts.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	KV       kvStore
	Sessions sessionManager
	Health   map[string]controllers.Pinger
	Metrics  prometheus.Gatherer

	Auth     auth.Service
	Users    users.Service
	Products product.Service
	Orders   orders.Service
	Payments payments.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg)
	requireAdmin := middleware.RequireRole(enums.RoleAdmin, logg)

	limits := cfg.AuthRateLimit
	loginPolicy := middleware.RateLimitPolicy{Name: "login", Window: limits.LoginWindow, PerIP: limits.LoginIPLimit, PerEmail: limits.LoginEmailLimit}
	signupPolicy := middleware.RateLimitPolicy{Name: "signup", Window: limits.SignupWindow, PerIP: limits.SignupIPLimit, PerEmail: limits.SignupEmailLimit}
	otpPolicy := middleware.RateLimitPolicy{Name: "otp", Window: limits.OTPWindow, PerIP: limits.OTPIPLimit, PerEmail: limits.OTPEmailLimit}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(otpPolicy, deps.KV, logg)).Post("/send-otp", controllers.AuthSendOTP(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(signupPolicy, deps.KV, logg)).Post("/signup", controllers.AuthSignup(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.KV, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.KV, logg)).Post("/google-login", controllers.AuthGoogleLogin(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Sessions, deps.Users, cfg.JWT, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Sessions, cfg.JWT, logg))
			r.With(requireAuth).Get("/me", controllers.AuthMe(deps.Users, logg))
			r.With(requireAuth).Post("/update-profile", controllers.AuthUpdateProfile(deps.Users, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(deps.Products, logg))
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin, middleware.Idempotency(deps.KV, logg))
				r.Post("/", controllers.ProductCreate(deps.Products, cfg.Media.MaxUploadBytes(), logg))
				r.Delete("/{productId}", controllers.ProductDelete(deps.Products, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(optionalAuth, middleware.Idempotency(deps.KV, logg)).Post("/", controllers.OrderCreate(deps.Orders, logg))
			r.With(requireAuth).Get("/user/{userId}", controllers.OrdersForUser(deps.Orders, logg))
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Get("/", controllers.OrdersList(deps.Orders, logg))
				r.With(middleware.Idempotency(deps.KV, logg)).Patch("/{orderId}/payment-status", controllers.OrderUpdatePaymentStatus(deps.Orders, logg))
			})
		})

		r.Route("/payment", func(r chi.Router) {
			r.Use(optionalAuth, middleware.Idempotency(deps.KV, logg))
			r.Get("/key", controllers.PaymentKey(deps.Payments))
			r.Post("/create-order", controllers.PaymentCreateOrder(deps.Payments, logg))
			r.Post("/verify", controllers.PaymentVerify(deps.Payments, logg))
		})
	})

	return r
}
