package router

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/cache"
	"github.com/poshpearl/poshpearl/internal/config"
	adminhandlers "github.com/poshpearl/poshpearl/internal/http/handlers/admin"
	publichandlers "github.com/poshpearl/poshpearl/internal/http/handlers/public"
	"github.com/poshpearl/poshpearl/internal/logger"
	"github.com/poshpearl/poshpearl/internal/provider"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "pp"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxAttempts,
		Message:       "too many checkout attempts",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(SessionMiddleware(cfg.Session))

	// 上传的商品图片
	r.Static("/uploads", "./uploads")

	optionalUser := OptionalUserMiddleware(cfg.UserJWT.SecretKey, c.UserRepo)
	requireUser := UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo)

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:slug", publicHandler.GetProduct)
			public.GET("/categories", publicHandler.ListCategories)
			public.GET("/orders/:order_no", publicHandler.TrackOrder)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", optionalUser, publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			auth.POST("/forgot-password", publicHandler.RequestPasswordReset)
			auth.POST("/reset-password", publicHandler.ResetPassword)
		}

		// 购物车与结账：登录用户或匿名会话均可
		store := apiV1.Group("")
		store.Use(optionalUser)
		{
			store.GET("/cart", publicHandler.GetCart)
			store.POST("/cart/items", publicHandler.AddCartItem)
			store.PATCH("/cart/items/:id", publicHandler.UpdateCartItem)
			store.DELETE("/cart/items/:id", publicHandler.DeleteCartItem)
			store.DELETE("/cart", publicHandler.ClearCart)

			store.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByIP), publicHandler.Checkout)
			store.POST("/payments/init", publicHandler.InitPayment)
			store.GET("/payments/callback", publicHandler.PaymentCallback)
		}

		// 网关异步推送（签名校验，不依赖会话）
		apiV1.POST("/payments/webhook", publicHandler.PaymentWebhook)

		// 用户接口（需登录）
		user := apiV1.Group("")
		user.Use(requireUser)
		{
			user.GET("/me", publicHandler.Me)
			user.PUT("/me/password", publicHandler.ChangePassword)
			user.GET("/orders", publicHandler.MyOrders)
			user.GET("/orders/:id", publicHandler.MyOrder)
			user.GET("/wishlist", publicHandler.GetWishlist)
			user.POST("/wishlist/items", publicHandler.AddWishlistItem)
			user.DELETE("/wishlist/items/:id", publicHandler.RemoveWishlistItem)
		}

		// 员工接口
		admin := apiV1.Group("/admin")
		admin.Use(requireUser, StaffAuthMiddleware())
		{
			admin.GET("/products", adminHandler.GetProducts)
			admin.GET("/products/:id", adminHandler.GetProduct)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)
			admin.DELETE("/products/:id", adminHandler.DeleteProduct)
			admin.PUT("/products/:id/tiers", adminHandler.ReplaceProductTiers)
			admin.POST("/products/:id/images", adminHandler.UploadProductImage)
			admin.DELETE("/products/:id/images/:image_id", adminHandler.DeleteProductImage)

			admin.GET("/categories", adminHandler.GetCategories)
			admin.POST("/categories", adminHandler.CreateCategory)
			admin.PUT("/categories/:id", adminHandler.UpdateCategory)
			admin.DELETE("/categories/:id", adminHandler.DeleteCategory)

			admin.GET("/orders", adminHandler.GetOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)
			admin.PUT("/orders/:id/payment-status", adminHandler.UpdateOrderPaymentStatus)
			admin.PUT("/orders/:id/note", adminHandler.UpdateOrderNote)

			admin.GET("/users", adminHandler.GetUsers)
			admin.PUT("/users/:id/status", adminHandler.UpdateUserStatus)

			admin.GET("/settings/:key", adminHandler.GetSetting)
			admin.PUT("/settings/:key", adminHandler.UpdateSetting)
		}
	}

	return r
}
