package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/gomarket/internal/middleware"
	"github.com/example/gomarket/internal/service"
)

// registerVendorRoutes 店铺相关路由
func registerVendorRoutes(api iris.Party, d *deps) {
	vendors := api.Party("/vendors")

	readShopInput := func(ctx iris.Context) (*service.CreateShopInput, bool) {
		var req struct {
			ShopName    string  `json:"shop_name"`
			Description string  `json:"description"`
			Address     string  `json:"address"`
			City        string  `json:"city"`
			State       string  `json:"state"`
			ZipCode     string  `json:"zip_code"`
			Country     string  `json:"country"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, iris.StatusBadRequest, err.Error())
			return nil, false
		}
		return &service.CreateShopInput{
			ShopName:    req.ShopName,
			Description: req.Description,
			Address:     req.Address,
			City:        req.City,
			State:       req.State,
			ZipCode:     req.ZipCode,
			Country:     req.Country,
			Latitude:    req.Latitude,
			Longitude:   req.Longitude,
		}, true
	}

	// 开店
	vendors.Post("/", d.authmw.Authenticate(), func(ctx iris.Context) {
		in, okRead := readShopInput(ctx)
		if !okRead {
			return
		}
		v, err := d.vendorSvc.CreateShop(ctx.Request().Context(), middleware.CurrentUserID(ctx), *in)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, v)
	})

	// 店铺列表
	vendors.Get("/", func(ctx iris.Context) {
		page, limit := pageParams(ctx)
		list, total, err := d.vendorSvc.ListActive(ctx.Request().Context(), page, limit)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, paged(list, total, page, limit))
	})

	// 附近店铺（仅激活且已认证）
	vendors.Get("/nearby", func(ctx iris.Context) {
		lat := ctx.URLParamFloat64Default("lat", 0)
		lng := ctx.URLParamFloat64Default("lng", 0)
		radius := ctx.URLParamFloat64Default("radius", 50)
		list, err := d.vendorSvc.Nearby(ctx.Request().Context(), lat, lng, radius)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 店铺主页（slug 路由需在 {id} 之前注册）
	vendors.Get("/slug/{slug:string}", func(ctx iris.Context) {
		profile, err := d.vendorSvc.GetBySlug(ctx.Request().Context(), ctx.Params().Get("slug"))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, profile)
	})

	vendors.Get("/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		v, err := d.vendorSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, v)
	})

	// 店铺的商品列表
	vendors.Get("/{id:int64}/products", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		page, limit := pageParams(ctx)
		list, total, err := d.productSvc.ListByVendor(ctx.Request().Context(), id, page, limit)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, paged(list, total, page, limit))
	})

	// 店主更新资料
	vendors.Put("/{id:int64}", d.authmw.Authenticate(), func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		in, okRead := readShopInput(ctx)
		if !okRead {
			return
		}
		v, err := d.vendorSvc.Update(ctx.Request().Context(), id, middleware.CurrentUserID(ctx), *in)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, v)
	})

	// 商家仪表盘
	vendors.Get("/{id:int64}/dashboard", d.authmw.Authenticate(), func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		dash, err := d.vendorSvc.GetDashboard(ctx.Request().Context(), id, middleware.CurrentUserID(ctx))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, dash)
	})
}
