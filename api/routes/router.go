package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wastetotreasure/w2t-backend/api/controllers"
	"github.com/wastetotreasure/w2t-backend/api/middleware"
	"github.com/wastetotreasure/w2t-backend/internal/address"
	"github.com/wastetotreasure/w2t-backend/internal/auth"
	"github.com/wastetotreasure/w2t-backend/internal/cart"
	checkoutsvc "github.com/wastetotreasure/w2t-backend/internal/checkout"
	"github.com/wastetotreasure/w2t-backend/internal/checkoutsession"
	"github.com/wastetotreasure/w2t-backend/internal/listings"
	"github.com/wastetotreasure/w2t-backend/internal/orders"
	"github.com/wastetotreasure/w2t-backend/internal/payments"
	"github.com/wastetotreasure/w2t-backend/pkg/auth/session"
	"github.com/wastetotreasure/w2t-backend/pkg/config"
	"github.com/wastetotreasure/w2t-backend/pkg/db"
	"github.com/wastetotreasure/w2t-backend/pkg/enums"
	"github.com/wastetotreasure/w2t-backend/pkg/logger"
	pkgredis "github.com/wastetotreasure/w2t-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP layer needs.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *pkgredis.Client
	Registry *prometheus.Registry

	Sessions      session.AccessSessionChecker
	CheckoutStore checkoutsession.Store
	AuthService   auth.Service
	Addresses     address.Service
	Listings      listings.Service
	Cart          cart.Service
	Payments      payments.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
}

// NewRouter mounts every route the API serves.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	// Keep interface values nil when no client is wired so the middleware
	// stands down instead of panicking on a typed nil.
	var idemStore pkgredis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	var redisPinger pkgredis.Pinger
	if p.Redis != nil {
		idemStore = p.Redis
		limiterStore = p.Redis
		redisPinger = p.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, redisPinger))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, limiterStore, logg)).Post("/login", controllers.Login(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, limiterStore, logg)).Post("/register", controllers.Register(p.AuthService, logg))
		r.Post("/refresh", controllers.Refresh(p.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).Post("/logout", controllers.Logout(p.AuthService, logg))
	})

	// Browsing is open to everyone; only approved listings come back.
	r.Route("/api/v1/listings", func(r chi.Router) {
		r.Get("/", controllers.BrowseListings(p.Listings, logg))
		r.Get("/{listingID}", controllers.GetListing(p.Listings, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
			r.Post("/{listingID}/report", controllers.ReportListing(p.Listings, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(p.Addresses, p.CheckoutStore, logg))
			r.Post("/", controllers.CreateAddress(p.Addresses, logg))
			r.Delete("/{addressID}", controllers.DeleteAddress(p.Addresses, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(p.Cart, logg))
			r.Post("/items", controllers.AddCartItem(p.Cart, logg))
			r.Delete("/items/{listingID}", controllers.RemoveCartItem(p.Cart, logg))
			r.Delete("/", controllers.ClearCart(p.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/shipping-methods", controllers.ShippingMethods(logg))
			r.Put("/address", controllers.CheckoutAddress(p.Checkout, logg))
			r.Get("/payment", controllers.CheckoutPayment(p.Payments, logg))
			r.Post("/payment-methods", controllers.AddPaymentMethod(p.Payments, logg))
			r.Delete("/payment-methods/{methodID}", controllers.DeletePaymentMethod(p.Payments, logg))
			r.Get("/confirmation", controllers.CheckoutConfirmation(p.Checkout, logg))
			r.Post("/confirm", controllers.CheckoutConfirm(p.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(p.Orders, logg))
		})

		r.Route("/seller/listings", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.MemberRoleSeller), logg))
			r.Get("/", controllers.MyListings(p.Listings, logg))
			r.Post("/", controllers.CreateListing(p.Listings, logg))
			r.Patch("/{listingID}", controllers.UpdateListing(p.Listings, logg))
			r.Delete("/{listingID}", controllers.DeleteListing(p.Listings, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.MemberRoleAdmin), logg))
			r.Get("/listings/pending", controllers.PendingListings(p.Listings, logg))
			r.Post("/listings/{listingID}/moderate", controllers.ModerateListing(p.Listings, logg))
			r.Get("/reports", controllers.ListReports(p.Listings, logg))
			r.Post("/reports/{reportID}/resolve", controllers.ResolveReport(p.Listings, logg))
		})
	})

	return r
}
