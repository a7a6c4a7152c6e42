package controllers

import (
	"github.com/kataras/iris/v12"

	"github.com/example/gomarket/internal/auth"
	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/service"
)

// AccountController 负责需要登录态的买家/商家页面：
// 购物车、结算、订单列表、商家经营面板。
// 登录态来自 cookie 中的 token（与 API 的 Bearer 头同源）。
type AccountController struct {
	jwt            *config.JWTConfig
	cartService    *service.CartService
	addressService *service.AddressService
	orderService   *service.OrderService
	vendorService  *service.VendorService
}

func NewAccountController(
	jwt *config.JWTConfig,
	cartSvc *service.CartService,
	addressSvc *service.AddressService,
	orderSvc *service.OrderService,
	vendorSvc *service.VendorService,
) *AccountController {
	return &AccountController{
		jwt:            jwt,
		cartService:    cartSvc,
		addressService: addressSvc,
		orderService:   orderSvc,
		vendorService:  vendorSvc,
	}
}

// currentUserID 解析 cookie 中的 token，未登录返回 0
func (c *AccountController) currentUserID(ctx iris.Context) int64 {
	token := ctx.GetCookie("token")
	if token == "" {
		return 0
	}
	claims, err := auth.ParseToken(c.jwt, token)
	if err != nil {
		return 0
	}
	return claims.UserID
}

// requireLogin 未登录跳转登录页，返回当前用户 ID
func (c *AccountController) requireLogin(ctx iris.Context) int64 {
	userID := c.currentUserID(ctx)
	if userID == 0 {
		ctx.Redirect("/login", iris.StatusFound)
	}
	return userID
}

func (c *AccountController) renderError(ctx iris.Context, msg string) {
	ctx.ViewLayout("shared/layout.html")
	if err := ctx.View("shared/error.html", iris.Map{"showMessage": msg}); err != nil {
		ctx.ContentType("text/html; charset=utf-8")
		_, _ = ctx.WriteString("<h2>" + msg + "</h2>")
	}
}

// CartPage 购物车页
func (c *AccountController) CartPage(ctx iris.Context) {
	userID := c.requireLogin(ctx)
	if userID == 0 {
		return
	}
	summary, err := c.cartService.Summary(ctx.Request().Context(), userID)
	if err != nil {
		c.renderError(ctx, "无法加载购物车")
		return
	}
	ctx.ViewLayout("shared/layout.html")
	if err := ctx.View("shop/cart.html", iris.Map{"summary": summary}); err != nil {
		c.renderError(ctx, "页面渲染失败")
	}
}

// CheckoutPage 结算页：购物车摘要 + 地址簿
func (c *AccountController) CheckoutPage(ctx iris.Context) {
	userID := c.requireLogin(ctx)
	if userID == 0 {
		return
	}
	summary, err := c.cartService.Summary(ctx.Request().Context(), userID)
	if err != nil {
		c.renderError(ctx, "无法加载购物车")
		return
	}
	addresses, err := c.addressService.List(ctx.Request().Context(), userID)
	if err != nil {
		c.renderError(ctx, "无法加载收货地址")
		return
	}
	ctx.ViewLayout("shared/layout.html")
	if err := ctx.View("shop/checkout.html", iris.Map{
		"summary":   summary,
		"addresses": addresses,
	}); err != nil {
		c.renderError(ctx, "页面渲染失败")
	}
}

// PlaceOrder 结算表单提交，成功后跳转订单列表
func (c *AccountController) PlaceOrder(ctx iris.Context) {
	userID := c.requireLogin(ctx)
	if userID == 0 {
		return
	}
	addressID, err := ctx.PostValueInt64("address_id")
	if err != nil || addressID <= 0 {
		c.renderError(ctx, "请选择收货地址")
		return
	}
	notes := ctx.FormValue("notes")

	if _, err := c.orderService.Checkout(ctx.Request().Context(), userID, addressID, notes); err != nil {
		c.renderError(ctx, "下单失败: "+err.Error())
		return
	}
	ctx.Redirect("/orders", iris.StatusFound)
}

// OrdersPage 买家订单列表页
func (c *AccountController) OrdersPage(ctx iris.Context) {
	userID := c.requireLogin(ctx)
	if userID == 0 {
		return
	}
	page := ctx.URLParamIntDefault("page", 1)
	orders, total, err := c.orderService.ListByBuyer(ctx.Request().Context(), userID, page, 20)
	if err != nil {
		c.renderError(ctx, "无法加载订单")
		return
	}
	ctx.ViewLayout("shared/layout.html")
	if err := ctx.View("shop/orders.html", iris.Map{
		"orders": orders,
		"total":  total,
		"page":   page,
	}); err != nil {
		c.renderError(ctx, "页面渲染失败")
	}
}

// DashboardPage 商家经营面板页，未开店提示先开通
func (c *AccountController) DashboardPage(ctx iris.Context) {
	userID := c.requireLogin(ctx)
	if userID == 0 {
		return
	}
	v, err := c.vendorService.GetByUserID(ctx.Request().Context(), userID)
	if err != nil {
		c.renderError(ctx, "请先开通店铺")
		return
	}
	dash, err := c.vendorService.GetDashboard(ctx.Request().Context(), v.ID, userID)
	if err != nil {
		c.renderError(ctx, "无法加载经营数据")
		return
	}
	ctx.ViewLayout("shared/layout.html")
	if err := ctx.View("shop/dashboard.html", iris.Map{
		"vendor":    v,
		"dashboard": dash,
	}); err != nil {
		c.renderError(ctx, "页面渲染失败")
	}
}
