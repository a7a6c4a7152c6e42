package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/gomarket/internal/middleware"
	"github.com/example/gomarket/internal/service"
)

// registerReviewRoutes 评价路由
func registerReviewRoutes(api iris.Party, d *deps) {
	reviews := api.Party("/reviews")

	// 发表评价（要求已签收订单）
	reviews.Post("/", d.authmw.Authenticate(), func(ctx iris.Context) {
		var req struct {
			ProductID int64  `json:"product_id"`
			OrderID   int64  `json:"order_id"`
			Rating    int    `json:"rating"`
			Title     string `json:"title"`
			Content   string `json:"content"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		r, err := d.reviewSvc.Create(ctx.Request().Context(), middleware.CurrentUserID(ctx), service.CreateInput{
			ProductID: req.ProductID,
			OrderID:   req.OrderID,
			Rating:    req.Rating,
			Title:     req.Title,
			Content:   req.Content,
		})
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, r)
	})

	reviews.Get("/product/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		page, limit := pageParams(ctx)
		list, total, err := d.reviewSvc.ListByProduct(ctx.Request().Context(), id, page, limit)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, paged(list, total, page, limit))
	})

	reviews.Get("/vendor/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		page, limit := pageParams(ctx)
		list, total, err := d.reviewSvc.ListByVendor(ctx.Request().Context(), id, page, limit)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, paged(list, total, page, limit))
	})
}
