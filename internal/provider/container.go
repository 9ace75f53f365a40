package provider

import (
	"github.com/poshpearl/poshpearl/internal/cache"
	"github.com/poshpearl/poshpearl/internal/config"
	"github.com/poshpearl/poshpearl/internal/logger"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/payment/paystack"
	"github.com/poshpearl/poshpearl/internal/queue"
	"github.com/poshpearl/poshpearl/internal/repository"
	"github.com/poshpearl/poshpearl/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo     repository.UserRepository
	ProductRepo  repository.ProductRepository
	CategoryRepo repository.CategoryRepository
	CartRepo     repository.CartRepository
	OrderRepo    repository.OrderRepository
	WishlistRepo repository.WishlistRepository
	SettingRepo  repository.SettingRepository

	// Services
	PricingService      *service.PricingService
	ProductService      *service.ProductService
	CategoryService     *service.CategoryService
	CartService         *service.CartService
	WishlistService     *service.WishlistService
	CheckoutService     *service.CheckoutService
	OrderService        *service.OrderService
	AuthService         *service.AuthService
	SettingService      *service.SettingService
	EmailService        *service.EmailService
	NotificationService *service.NotificationService
	UploadService       *service.UploadService

	Paystack *paystack.Client
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.WishlistRepo = repository.NewWishlistRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	c.SettingService = service.NewSettingService(c.SettingRepo, c.Config.Site)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.NotificationService = service.NewNotificationService(
		c.OrderRepo, c.UserRepo, c.SettingService, c.EmailService, c.QueueClient, c.Config.Site.URL,
	)

	c.PricingService = service.NewPricingService(c.ProductRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CategoryRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.PricingService)
	c.WishlistService = service.NewWishlistService(c.WishlistRepo, c.ProductRepo)
	c.UploadService = service.NewUploadService(c.Config.Upload)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo)
	c.AuthService = service.NewAuthService(c.Config, c.UserRepo, c.CartService, c.NotificationService)

	gateway, err := paystack.NewClient(paystack.Config{
		BaseURL:     c.Config.Paystack.BaseURL,
		SecretKey:   c.Config.Paystack.SecretKey,
		CallbackURL: c.Config.Paystack.CallbackURL,
		Timeout:     c.Config.Paystack.Timeout(),
	})
	if err != nil {
		logger.Warnw("provider_init_paystack_failed", "error", err)
	}
	c.Paystack = gateway
	c.CheckoutService = service.NewCheckoutService(
		c.OrderRepo, c.CartRepo, c.ProductRepo, c.UserRepo, c.CartService,
		gateway, c.NotificationService, c.Config.Paystack, c.Config.Site.Currency,
	)
}
