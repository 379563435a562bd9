package api

import (
	"net/http"
	"time"

	"food-storefront/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	adminSessionName = "admin_session"
	cartSessionName  = "cart"
	adminSessionTTL  = 8 * time.Hour
	cartSessionTTL   = 30 * 24 * time.Hour
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Store      services.Store
	Orders     *services.OrderService
	Checkout   *services.CheckoutService
	Auth       *services.AuthService
	Location   *time.Location
	Secret     string
	Production bool
	RateLimit  float64
	RateBurst  int
	Log        zerolog.Logger
}

type Server struct {
	store      services.Store
	orders     *services.OrderService
	checkout   *services.CheckoutService
	auth       *services.AuthService
	loc        *time.Location
	production bool
	log        zerolog.Logger
}

// NewRouter builds the gin engine with every storefront and dashboard route.
func NewRouter(d Deps) *gin.Engine {
	if d.Location == nil {
		d.Location = time.Local
	}
	s := &Server{
		store:      d.Store,
		orders:     d.Orders,
		checkout:   d.Checkout,
		auth:       d.Auth,
		loc:        d.Location,
		production: d.Production,
		log:        d.Log,
	}

	r := gin.New()
	r.MaxMultipartMemory = services.MaxProofBytes + 1<<20
	r.Use(RequestLogger(d.Log), gin.Recovery())

	store := cookie.NewStore([]byte(d.Secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, Secure: d.Production, SameSite: http.SameSiteStrictMode})
	r.Use(sessions.SessionsMany([]string{adminSessionName, cartSessionName}, store))
	r.Use(AdminGate())

	limiter := NewRateLimiter(d.RateLimit, d.RateBurst)

	api := r.Group("/api")
	{
		api.GET("/menu", s.GetMenu)
		api.GET("/settings", s.GetSettings)

		api.GET("/cart", s.GetCart)
		api.POST("/cart/items", s.AddCartItem)
		api.PATCH("/cart/items/:id", s.UpdateCartItem)
		api.DELETE("/cart/items/:id", s.RemoveCartItem)
		api.POST("/cart/items/:id/extras", s.ToggleCartExtra)
		api.DELETE("/cart", s.ClearCart)

		api.POST("/checkout", limiter.Middleware(), s.Checkout)
		api.POST("/orders/search", limiter.Middleware(), s.SearchOrders)

		api.POST("/auth", limiter.Middleware(), s.Login)
		api.POST("/auth/logout", s.Logout)
		api.GET("/auth/check", s.CheckAuth)
	}

	admin := api.Group("/admin", RequireAdmin())
	{
		admin.GET("/orders", s.ListOrders)
		admin.GET("/orders/:id/history", s.OrderHistory)
		admin.POST("/orders/:id/status", s.UpdateOrderStatus)
		admin.POST("/orders/:id/cancel", s.CancelOrder)
		admin.GET("/stats", s.DailyStats)
		admin.GET("/customers", s.ListCustomers)
		admin.GET("/reports", s.RevenueReport)
		admin.GET("/assets/:ref", s.GetAsset)
		admin.PUT("/meals/:id", s.SaveMeal)
		admin.PATCH("/meals/:id/availability", s.SetMealAvailability)
	}

	return r
}
