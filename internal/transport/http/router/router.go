package router

import (
	"context"
	"net/http"
	"time"

	"marketplace-service/internal/identity"
	"marketplace-service/internal/service"
	"marketplace-service/internal/transport/http/handlers"
	"marketplace-service/internal/transport/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Services struct {
	Auth    *service.AuthService
	Tenants *service.TenantService
	Catalog *service.CatalogService
	Orders  *service.OrderService
}

type Options struct {
	AllowOrigins []string
	// Health проверяет зависимости для /health; nil значит всегда ok.
	Health func(ctx context.Context) error
}

func Router(svc Services, resolver *identity.Resolver, opt Options, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.HeaderTenant, middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(opt.AllowOrigins) == 0 || containsWildcard(opt.AllowOrigins) {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opt.AllowOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		if opt.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := opt.Health(ctx); err != nil {
				log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(svc.Auth, log)
	tenantHandler := handlers.NewTenantHandler(svc.Tenants, log)
	productHandler := handlers.NewProductHandler(svc.Catalog, log)
	orderHandler := handlers.NewOrderHandler(svc.Orders, log)

	api := r.Group("/api/v1")
	api.Use(middleware.Identity(resolver), middleware.TenantContext(resolver))

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", middleware.RequireAuth(), authHandler.Logout)
		auth.GET("/me", middleware.RequireAuth(), authHandler.Me)
	}

	tenants := api.Group("/tenants")
	{
		tenants.GET("", tenantHandler.List)
		tenants.GET("/:id", tenantHandler.Get)
		tenants.POST("", middleware.RequireAuth(), tenantHandler.Create)
		tenants.POST("/staff", middleware.RequireAuth(), tenantHandler.AddStaff)
	}

	products := api.Group("/products")
	{
		products.GET("", productHandler.List)
		products.GET("/:id", productHandler.Get)
		products.POST("", middleware.RequireAuth(), productHandler.Create)
		products.PATCH("/:id", middleware.RequireAuth(), productHandler.Update)
		products.DELETE("/:id", middleware.RequireAuth(), productHandler.Delete)
	}

	orders := api.Group("/orders", middleware.RequireAuth())
	{
		orders.GET("", orderHandler.List)
		orders.GET("/:id", orderHandler.Get)
		orders.POST("", orderHandler.Place)
		orders.PATCH("/:id/status", orderHandler.UpdateStatus)
	}

	return r
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
