package server

import (
	"errors"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/example/gomarket/internal/auth"
	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/datamodels/order"
	"github.com/example/gomarket/internal/infra/mq"
	"github.com/example/gomarket/internal/infra/redis"
	"github.com/example/gomarket/internal/middleware"
	"github.com/example/gomarket/internal/repository/mysql"
	"github.com/example/gomarket/internal/service"
	webcontrollers "github.com/example/gomarket/web/controllers"
)

// deps 汇聚各路由组共用的服务
type deps struct {
	cfg        *config.Config
	userSvc    *service.UserService
	addressSvc *service.AddressService
	vendorSvc  *service.VendorService
	productSvc *service.ProductService
	cartSvc    *service.CartService
	orderSvc   *service.OrderService
	reviewSvc  *service.ReviewService
	authmw     *middleware.Authenticator
}

func buildDeps(cfg *config.Config) *deps {
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	userRepo := mysql.NewUserRepository(db)
	addressRepo := mysql.NewAddressRepository(db)
	vendorRepo := mysql.NewVendorRepository(db)
	productRepo := mysql.NewProductRepository(db)
	cartRepo := mysql.NewCartRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	paymentRepo := mysql.NewPaymentRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)

	publisher := service.NewEventPublisher(mqConn)

	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring,
		time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	return &deps{
		cfg:        cfg,
		userSvc:    service.NewUserService(userRepo, &cfg.JWT),
		addressSvc: service.NewAddressService(addressRepo),
		vendorSvc:  service.NewVendorService(vendorRepo, userRepo, productRepo, orderRepo),
		productSvc: service.NewProductService(productRepo),
		cartSvc:    service.NewCartService(cartRepo, productRepo),
		orderSvc: service.NewOrderService(
			cartRepo, productRepo, addressRepo, orderRepo, paymentRepo,
			publisher, &cfg.Market,
		),
		reviewSvc: service.NewReviewService(reviewRepo, orderRepo, productRepo, vendorRepo),
		authmw:    middleware.NewAuthenticator(&cfg.JWT, tokenCache),
	}
}

// RegisterRoutes 注册前台 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	d := buildDeps(cfg)

	app.HandleDir("/assets", iris.Dir("./web/assets"))

	api := app.Party("/api")
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	registerAuthRoutes(api, d)
	registerVendorRoutes(api, d)
	registerProductRoutes(api, d)
	registerCartRoutes(api, d)
	registerOrderRoutes(api, d)
	registerReviewRoutes(api, d)

	registerPages(app, d)
}

// registerPages 前台页面路由，视图由 web/controllers 渲染
func registerPages(app *iris.Application, d *deps) {
	userController := webcontrollers.NewUserController(d.userSvc)
	app.Get("/login", userController.ShowLogin)
	app.Get("/register", userController.ShowRegister)
	app.Get("/logout", userController.Logout)
	app.Post("/login", userController.PostLogin)
	app.Post("/register", userController.PostRegister)

	shopController := webcontrollers.NewShopController(d.productSvc, d.vendorSvc, d.reviewSvc)
	app.Get("/", shopController.Home)
	app.Get("/products", shopController.Listing)
	app.Get("/product/{slug:string}", shopController.ProductDetail)
	app.Get("/shop/{slug:string}", shopController.VendorProfile)

	accountController := webcontrollers.NewAccountController(
		&d.cfg.JWT, d.cartSvc, d.addressSvc, d.orderSvc, d.vendorSvc)
	app.Get("/cart", accountController.CartPage)
	app.Get("/checkout", accountController.CheckoutPage)
	app.Post("/checkout", accountController.PlaceOrder)
	app.Get("/orders", accountController.OrdersPage)
	app.Get("/dashboard", accountController.DashboardPage)
}

// ---- 路由组共用的响应与参数辅助 ----

func ok(ctx iris.Context, data interface{}) {
	_ = ctx.JSON(iris.Map{"code": 0, "data": data})
}

func fail(ctx iris.Context, status int, msg string) {
	ctx.StopWithJSON(status, iris.Map{"code": status, "msg": msg})
}

// failErr 按错误类型映射 HTTP 状态码
func failErr(ctx iris.Context, err error) {
	status := iris.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrShopNameTaken),
		errors.Is(err, service.ErrShopNameRequired),
		errors.Is(err, service.ErrProductNameTaken),
		errors.Is(err, service.ErrProductNameRequired),
		errors.Is(err, service.ErrInvalidPriceOrStock),
		errors.Is(err, service.ErrProductNotOnSale),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrAddressIncomplete),
		errors.Is(err, service.ErrCartEmpty),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrPaymentMissing),
		errors.Is(err, service.ErrUnsupportedMethod),
		errors.Is(err, service.ErrReviewNotAllowed),
		errors.Is(err, service.ErrReviewDuplicate),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrNotPending),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrProductUnavailable):
		status = iris.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = iris.StatusUnauthorized
	case errors.Is(err, service.ErrAddressNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrVendorNotFound),
		errors.Is(err, service.ErrVendorOrderNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrReviewNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		status = iris.StatusNotFound
	}
	fail(ctx, status, err.Error())
}

// paged 分页响应体：data/total/page/total_pages
func paged(data interface{}, total int64, page, limit int) iris.Map {
	totalPages := int64(0)
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return iris.Map{
		"data":        data,
		"total":       total,
		"page":        page,
		"total_pages": totalPages,
	}
}

// pageParams 读取 page/limit 查询参数
func pageParams(ctx iris.Context) (int, int) {
	page := ctx.URLParamIntDefault("page", 1)
	limit := ctx.URLParamIntDefault("limit", 20)
	return page, limit
}
