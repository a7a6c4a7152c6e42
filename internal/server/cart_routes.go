package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/gomarket/internal/middleware"
)

// registerCartRoutes 购物车路由，全部要求登录
func registerCartRoutes(api iris.Party, d *deps) {
	cart := api.Party("/cart", d.authmw.Authenticate())

	cart.Get("/", func(ctx iris.Context) {
		view, err := d.cartSvc.Get(ctx.Request().Context(), middleware.CurrentUserID(ctx))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, view)
	})

	cart.Get("/summary", func(ctx iris.Context) {
		summary, err := d.cartSvc.Summary(ctx.Request().Context(), middleware.CurrentUserID(ctx))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, summary)
	})

	cart.Post("/items", func(ctx iris.Context) {
		var req struct {
			ProductID int64 `json:"product_id"`
			Quantity  int64 `json:"quantity"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		view, err := d.cartSvc.AddItem(ctx.Request().Context(), middleware.CurrentUserID(ctx), req.ProductID, req.Quantity)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, view)
	})

	cart.Put("/items/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Quantity int64 `json:"quantity"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		view, err := d.cartSvc.UpdateItem(ctx.Request().Context(), middleware.CurrentUserID(ctx), id, req.Quantity)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, view)
	})

	cart.Delete("/items/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		view, err := d.cartSvc.RemoveItem(ctx.Request().Context(), middleware.CurrentUserID(ctx), id)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, view)
	})

	cart.Post("/clear", func(ctx iris.Context) {
		view, err := d.cartSvc.Clear(ctx.Request().Context(), middleware.CurrentUserID(ctx))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, view)
	})
}
