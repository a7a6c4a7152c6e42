package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/service"
)

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由。
// 端口通常是 8081，与前台 Web 服务分离，只在内网暴露。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	d := buildDeps(cfg)

	api := app.Party("/api")

	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// ---------- 用户管理 ----------

	api.Get("/users", func(ctx iris.Context) {
		list, err := d.userSvc.ListAll(ctx.Request().Context())
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// ---------- 店铺管理 ----------

	api.Get("/vendors", func(ctx iris.Context) {
		page, limit := pageParams(ctx)
		list, total, err := d.vendorSvc.ListActive(ctx.Request().Context(), page, limit)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, paged(list, total, page, limit))
	})

	api.Post("/vendors/{id:int64}/verify", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		v, err := d.vendorSvc.Verify(ctx.Request().Context(), id)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, v)
	})

	api.Post("/vendors/{id:int64}/deactivate", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		v, err := d.vendorSvc.Deactivate(ctx.Request().Context(), id)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, v)
	})

	// ---------- 订单管理 ----------

	api.Get("/orders", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 20)
		list, err := d.orderSvc.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// ---------- 评价管理 ----------

	api.Get("/reviews", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 50)
		list, err := d.reviewSvc.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, list)
	})

	api.Post("/reviews/{id:int64}/hide", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		r, err := d.reviewSvc.Hide(ctx.Request().Context(), id)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, r)
	})

	// ---------- 运行监控 ----------

	api.Get("/monitor", func(ctx iris.Context) {
		ok(ctx, service.GetMonitor().GetStats())
	})
}
