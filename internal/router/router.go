package router // package router defines how HTTP routes are registered for the API

import (
	"context"
	"math"
	"strconv"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/room-reservation/internal/config"
	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/model"
)

// Deps carries everything the router needs.  Redis may be nil, which
// disables the response cache and the rate limiter.
type Deps struct {
	JWTSecret    string
	Reservations *handler.ReservationHandler
	WorkOrders   *handler.WorkOrderHandler
	Auth         *handler.AuthHandler
	Health       *handler.HealthHandler
	Redis        *redis.Client
	Cache        config.CacheConfig
	RateLimit    config.RateLimitConfig
	Registry     *prometheus.Registry
}

// Setup installs the global middleware and every route on e.
func Setup(e *echo.Echo, d Deps) {
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	e.Pre(middleware.CORS(middleware.DefaultCORSConfig))
	e.Use(echomw.Recover())
	e.Use(requestLogger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "room_reservation",
		Registerer: reg,
	}))
	registerRedisGauge(reg, d.Redis)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))

	RegisterRoutes(e)

	// IdentifyBearer goes first so user-keyed buckets see the verified user.
	api := e.Group("/api", middleware.IdentifyBearer(d.JWTSecret), middleware.NewTokenBucket(d.RateLimit, d.Redis))
	if d.Health != nil {
		api.GET("/health", d.Health.Check)
	}
	if d.Auth != nil {
		RegisterAuth(api, d.Auth, d.JWTSecret)
	}
	if d.Reservations != nil {
		RegisterReservations(api, d.Reservations, middleware.NewRedisCache(d.Cache, d.Redis, middleware.CacheNSReservations))
	}
	if d.WorkOrders != nil {
		RegisterWorkOrders(api, d.WorkOrders, d.JWTSecret, middleware.NewRedisCache(d.Cache, d.Redis, middleware.CacheNSWorkOrders))
	}
}

// RegisterRoutes registers routes that do not require authentication and
// are not rate limited: the liveness probe and the API description.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
	e.GET("/", handler.Docs)
}

// RegisterAuth registers the authentication routes under /api/auth.
// Login, refresh and logout need no session; verify needs a valid access
// token and creating users is reserved to admins.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, jwtSecret string) {
	g := api.Group("/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh token in the body or a bearer token,
	// so it is not behind JWTAuth.
	g.POST("/logout", a.Logout)

	g.GET("/verify", a.Verify, middleware.JWTAuth(jwtSecret))
	g.POST("/users", a.CreateUser, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
}

// RegisterReservations registers the room catalog and reservation routes.
// Reads go through the response cache; create and cancel invalidate it.
func RegisterReservations(api *echo.Group, h *handler.ReservationHandler, cache echo.MiddlewareFunc) {
	api.GET("/rooms", h.ListRooms, cache)
	api.GET("/rooms/:id", h.GetRoom, cache)
	api.GET("/rooms/:id/reservations", h.ListRoomReservations, cache)

	api.GET("/reservations", h.ListReservations, cache)
	api.POST("/reservations", h.CreateReservation)
	api.DELETE("/reservations/:id", h.CancelReservation)
}

// RegisterWorkOrders registers /api/work-orders.  Every route needs a
// valid access token; mutations need the admin or technician role and
// deletion needs admin.
func RegisterWorkOrders(api *echo.Group, h *handler.WorkOrderHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := api.Group("/work-orders", middleware.JWTAuth(jwtSecret))
	editors := middleware.RequireRole(model.RoleAdmin, model.RoleTechnician)

	g.GET("", h.List, cache)
	g.GET("/stats", h.Stats, cache)
	g.GET("/:id", h.Get, cache)

	g.POST("", h.Create, editors)
	g.PUT("/:id", h.Update, editors)
	g.PATCH("/:id/complete", h.Complete, editors)
	g.DELETE("/:id", h.Delete, middleware.RequireRole(model.RoleAdmin))
}

// requestLogger logs one line per request through the echo logger.
func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s %d %s ip=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s ip=%s", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP)
			return nil
		},
	})
}

// registerRedisGauge exposes the number of Redis clients when Redis is
// configured.
func registerRedisGauge(reg prometheus.Registerer, rdb *redis.Client) {
	if rdb == nil {
		return
	}
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "room_reservation",
			Subsystem: "redis",
			Name:      "connected_clients",
			Help:      "The number of clients currently connected to Redis",
		},
		func() float64 {
			raw := rdb.InfoMap(context.Background()).Item("Clients", "connected_clients")
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return math.NaN()
			}
			return n
		},
	))
}
