package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/datamodels/user"
	"github.com/example/gomarket/internal/middleware"
	"github.com/example/gomarket/internal/service"
)

// registerProductRoutes 商品相关路由
func registerProductRoutes(api iris.Party, d *deps) {
	products := api.Party("/products")

	// 商品搜索（仅已上架）
	products.Get("/search", func(ctx iris.Context) {
		page, limit := pageParams(ctx)
		q := product.SearchQuery{
			Keyword:  ctx.URLParam("q"),
			Category: ctx.URLParam("category"),
			MinPrice: ctx.URLParamInt64Default("min_price", 0),
			MaxPrice: ctx.URLParamInt64Default("max_price", 0),
			Page:     page,
			Limit:    limit,
		}
		list, total, err := d.productSvc.Search(ctx.Request().Context(), q)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, paged(list, total, page, limit))
	})

	// 已上架商品列表
	products.Get("/", func(ctx iris.Context) {
		page, limit := pageParams(ctx)
		list, total, err := d.productSvc.ListPublished(ctx.Request().Context(), page, limit)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, paged(list, total, page, limit))
	})

	products.Get("/slug/{slug:string}", func(ctx iris.Context) {
		p, err := d.productSvc.GetBySlug(ctx.Request().Context(), ctx.Params().Get("slug"))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, p)
	})

	products.Get("/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := d.productSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, p)
	})

	// ---- 以下为商家管理自己商品的接口 ----

	manage := products.Party("/", d.authmw.Authenticate(),
		middleware.RequireRole(user.RoleVendor, user.RoleAdmin))

	// currentVendorID 取当前登录用户名下的店铺
	currentVendorID := func(ctx iris.Context) (int64, bool) {
		v, err := d.vendorSvc.GetByUserID(ctx.Request().Context(), middleware.CurrentUserID(ctx))
		if err != nil {
			fail(ctx, iris.StatusForbidden, "请先开通店铺")
			return 0, false
		}
		return v.ID, true
	}

	readProductInput := func(ctx iris.Context) (*service.CreateProductInput, bool) {
		var req struct {
			Name           string `json:"name"`
			Description    string `json:"description"`
			Price          int64  `json:"price"`
			CompareAtPrice int64  `json:"compare_at_price"`
			Category       string `json:"category"`
			Stock          int64  `json:"stock"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, iris.StatusBadRequest, err.Error())
			return nil, false
		}
		return &service.CreateProductInput{
			Name:           req.Name,
			Description:    req.Description,
			Price:          req.Price,
			CompareAtPrice: req.CompareAtPrice,
			Category:       req.Category,
			Stock:          req.Stock,
		}, true
	}

	manage.Post("/", func(ctx iris.Context) {
		vendorID, okVendor := currentVendorID(ctx)
		if !okVendor {
			return
		}
		in, okRead := readProductInput(ctx)
		if !okRead {
			return
		}
		p, err := d.productSvc.Create(ctx.Request().Context(), vendorID, *in)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, p)
	})

	manage.Put("/{id:int64}", func(ctx iris.Context) {
		vendorID, okVendor := currentVendorID(ctx)
		if !okVendor {
			return
		}
		id, _ := ctx.Params().GetInt64("id")
		in, okRead := readProductInput(ctx)
		if !okRead {
			return
		}
		p, err := d.productSvc.Update(ctx.Request().Context(), id, vendorID, *in)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, p)
	})

	manage.Post("/{id:int64}/publish", func(ctx iris.Context) {
		vendorID, okVendor := currentVendorID(ctx)
		if !okVendor {
			return
		}
		id, _ := ctx.Params().GetInt64("id")
		p, err := d.productSvc.Publish(ctx.Request().Context(), id, vendorID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, p)
	})

	manage.Delete("/{id:int64}", func(ctx iris.Context) {
		vendorID, okVendor := currentVendorID(ctx)
		if !okVendor {
			return
		}
		id, _ := ctx.Params().GetInt64("id")
		if err := d.productSvc.Delete(ctx.Request().Context(), id, vendorID); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"deleted": id})
	})
}
