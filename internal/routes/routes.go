package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"taniconnect_back_end/internal/handlers/admin"
	"taniconnect_back_end/internal/handlers/order"
	"taniconnect_back_end/internal/handlers/webhooks"
	"taniconnect_back_end/internal/middleware"
	"taniconnect_back_end/internal/models"
)

type Dependencies struct {
	JWTSecret []byte
	Users     middleware.PrincipalLoader
	Redis     *redis.Client

	Orders   *order.Handler
	Webhooks *webhooks.Handler
	Admin    *admin.Handler
	Health   gin.HandlerFunc

	MidtransWebhook bool
	StripeWebhook   bool
}

func RegisterRoutes(r *gin.Engine, d Dependencies) {
	r.GET("/health", d.Health)

	api := r.Group("/api")
	auth := middleware.AuthRequired(d.JWTSecret, d.Users)

	// Orders
	orders := api.Group("/orders", auth)
	orders.POST("",
		middleware.RequireRole(models.RoleBuyer),
		middleware.RateLimit(d.Redis, "order_create", middleware.OrderCreateMaxRequests, middleware.RateLimitWindow),
		d.Orders.Create,
	)
	orders.GET("", d.Orders.List)
	orders.GET("/:id", d.Orders.Get)

	// Browsers cannot set headers on a WebSocket handshake
	api.GET("/orders/:id/stream", middleware.TokenFromQuery("token"), auth, d.Orders.Stream)

	// Payment gateway callbacks: unauthenticated, signed payloads
	hooks := api.Group("/webhooks",
		middleware.RateLimit(d.Redis, "webhook", middleware.WebhookMaxRequests, middleware.RateLimitWindow))
	if d.MidtransWebhook {
		hooks.POST("/midtrans", d.Webhooks.Midtrans)
	}
	if d.StripeWebhook {
		hooks.POST("/stripe", d.Webhooks.Stripe)
	}

	// Admin
	adminGroup := api.Group("/admin", auth, middleware.RequireRole(models.RoleAdmin))
	adminGroup.GET("/orders/search", d.Admin.SearchOrders)
	adminGroup.GET("/orders/:id/events", d.Admin.PaymentEvents)
}
