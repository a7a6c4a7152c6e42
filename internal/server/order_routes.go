package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/gomarket/internal/datamodels/order"
	"github.com/example/gomarket/internal/middleware"
)

// registerOrderRoutes 下单/支付/履约路由，全部要求登录
func registerOrderRoutes(api iris.Party, d *deps) {
	orders := api.Party("/orders", d.authmw.Authenticate())

	// 下单链路限流
	orders.Post("/checkout", middleware.CheckoutRateLimit(), func(ctx iris.Context) {
		var req struct {
			ShippingAddressID int64  `json:"shipping_address_id"`
			Notes             string `json:"notes"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		result, err := d.orderSvc.Checkout(ctx.Request().Context(),
			middleware.CurrentUserID(ctx), req.ShippingAddressID, req.Notes)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, result)
	})

	orders.Post("/{id:int64}/select-payment", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Method string `json:"method"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		sel, err := d.orderSvc.SelectPayment(ctx.Request().Context(),
			middleware.CurrentUserID(ctx), id, req.Method)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, sel)
	})

	orders.Post("/{id:int64}/confirm-payment", middleware.CheckoutRateLimit(), func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		detail, err := d.orderSvc.ConfirmPayment(ctx.Request().Context(), middleware.CurrentUserID(ctx), id)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, detail)
	})

	orders.Post("/{id:int64}/cancel", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		detail, err := d.orderSvc.Cancel(ctx.Request().Context(), middleware.CurrentUserID(ctx), id)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, detail)
	})

	// 商家分单列表（仅店主）
	orders.Get("/vendor/{vendorId:int64}", func(ctx iris.Context) {
		vendorID, _ := ctx.Params().GetInt64("vendorId")
		v, err := d.vendorSvc.GetByID(ctx.Request().Context(), vendorID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		if v.UserID != middleware.CurrentUserID(ctx) {
			fail(ctx, iris.StatusForbidden, "没有操作权限")
			return
		}
		page, limit := pageParams(ctx)
		list, total, err := d.orderSvc.ListVendorOrders(ctx.Request().Context(), vendorID, page, limit)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, paged(list, total, page, limit))
	})

	// 商家推进分单履约状态
	orders.Put("/vendor-orders/{id:int64}/status", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		v, err := d.vendorSvc.GetByUserID(ctx.Request().Context(), middleware.CurrentUserID(ctx))
		if err != nil {
			fail(ctx, iris.StatusForbidden, "请先开通店铺")
			return
		}
		vo, err := d.orderSvc.UpdateVendorOrderStatus(ctx.Request().Context(),
			v.ID, id, order.Status(req.Status))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, vo)
	})

	// 买家订单列表
	orders.Get("/", func(ctx iris.Context) {
		page, limit := pageParams(ctx)
		list, total, err := d.orderSvc.ListByBuyer(ctx.Request().Context(),
			middleware.CurrentUserID(ctx), page, limit)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, paged(list, total, page, limit))
	})

	// 买家订单详情
	orders.Get("/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		detail, err := d.orderSvc.GetDetail(ctx.Request().Context(), middleware.CurrentUserID(ctx), id)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, detail)
	})
}
