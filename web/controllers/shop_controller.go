package controllers

import (
	"github.com/kataras/iris/v12"

	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/service"
)

// ShopController 负责店面页面：首页、商品列表/详情、店铺主页。
type ShopController struct {
	productService *service.ProductService
	vendorService  *service.VendorService
	reviewService  *service.ReviewService
}

func NewShopController(productSvc *service.ProductService, vendorSvc *service.VendorService, reviewSvc *service.ReviewService) *ShopController {
	return &ShopController{
		productService: productSvc,
		vendorService:  vendorSvc,
		reviewService:  reviewSvc,
	}
}

func (c *ShopController) renderError(ctx iris.Context, msg string) {
	ctx.ViewLayout("shared/layout.html")
	if err := ctx.View("shared/error.html", iris.Map{"showMessage": msg}); err != nil {
		ctx.ContentType("text/html; charset=utf-8")
		_, _ = ctx.WriteString("<h2>" + msg + "</h2>")
	}
}

// Home 首页：最新上架商品
func (c *ShopController) Home(ctx iris.Context) {
	list, _, err := c.productService.ListPublished(ctx.Request().Context(), 1, 12)
	if err != nil {
		c.renderError(ctx, "无法加载首页商品")
		return
	}
	ctx.ViewLayout("shared/layout.html")
	if err := ctx.View("shop/home.html", iris.Map{"products": list}); err != nil {
		c.renderError(ctx, "页面渲染失败")
	}
}

// Listing 商品列表页，支持搜索/分类/价格区间
func (c *ShopController) Listing(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	q := product.SearchQuery{
		Keyword:  ctx.URLParam("q"),
		Category: ctx.URLParam("category"),
		MinPrice: ctx.URLParamInt64Default("min_price", 0),
		MaxPrice: ctx.URLParamInt64Default("max_price", 0),
		Page:     page,
		Limit:    24,
	}
	list, total, err := c.productService.Search(ctx.Request().Context(), q)
	if err != nil {
		c.renderError(ctx, "无法加载商品列表")
		return
	}
	ctx.ViewLayout("shared/layout.html")
	if err := ctx.View("shop/listing.html", iris.Map{
		"products": list,
		"total":    total,
		"page":     page,
		"keyword":  q.Keyword,
		"category": q.Category,
	}); err != nil {
		c.renderError(ctx, "页面渲染失败")
	}
}

// ProductDetail 商品详情页（按 slug），附带该商品的评价
func (c *ShopController) ProductDetail(ctx iris.Context) {
	slug := ctx.Params().Get("slug")
	p, err := c.productService.GetBySlug(ctx.Request().Context(), slug)
	if err != nil {
		c.renderError(ctx, "商品不存在或已下架")
		return
	}
	reviews, _, err := c.reviewService.ListByProduct(ctx.Request().Context(), p.ID, 1, 10)
	if err != nil {
		reviews = nil
	}
	v, err := c.vendorService.GetByID(ctx.Request().Context(), p.VendorID)
	if err != nil {
		v = nil
	}
	ctx.ViewLayout("shared/layout.html")
	if err := ctx.View("shop/product.html", iris.Map{
		"product":   p,
		"vendor":    v,
		"reviews":   reviews,
		"available": p.Available(),
	}); err != nil {
		c.renderError(ctx, "页面渲染失败")
	}
}

// VendorProfile 店铺主页（按 slug）：店铺资料 + 已上架商品 + 评价
func (c *ShopController) VendorProfile(ctx iris.Context) {
	slug := ctx.Params().Get("slug")
	profile, err := c.vendorService.GetBySlug(ctx.Request().Context(), slug)
	if err != nil {
		c.renderError(ctx, "店铺不存在")
		return
	}
	reviews, _, err := c.reviewService.ListByVendor(ctx.Request().Context(), profile.Vendor.ID, 1, 10)
	if err != nil {
		reviews = nil
	}
	ctx.ViewLayout("shared/layout.html")
	if err := ctx.View("shop/vendor.html", iris.Map{
		"vendor":   profile.Vendor,
		"products": profile.Products,
		"reviews":  reviews,
	}); err != nil {
		c.renderError(ctx, "页面渲染失败")
	}
}
