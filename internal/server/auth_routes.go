package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/gomarket/internal/middleware"
	"github.com/example/gomarket/internal/service"
)

// registerAuthRoutes 注册/登录与地址簿
func registerAuthRoutes(api iris.Party, d *deps) {
	authParty := api.Party("/auth")
	authParty.Use(middleware.AuthRateLimit())

	authParty.Post("/signup", func(ctx iris.Context) {
		var req struct {
			Email     string `json:"email"`
			Password  string `json:"password"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Role      string `json:"role"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		u, token, err := d.userSvc.Signup(ctx.Request().Context(), service.SignupInput{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      req.Role,
		})
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"user": u, "token": token})
	})

	authParty.Post("/signin", func(ctx iris.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		u, token, err := d.userSvc.Signin(ctx.Request().Context(), req.Email, req.Password)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"user": u, "token": token})
	})

	me := api.Party("/me", d.authmw.Authenticate())
	me.Get("/", func(ctx iris.Context) {
		u, err := d.userSvc.GetByID(ctx.Request().Context(), middleware.CurrentUserID(ctx))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, u)
	})

	addresses := api.Party("/addresses", d.authmw.Authenticate())

	addresses.Get("/", func(ctx iris.Context) {
		list, err := d.addressSvc.List(ctx.Request().Context(), middleware.CurrentUserID(ctx))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, list)
	})

	readAddressInput := func(ctx iris.Context) (*service.AddressInput, bool) {
		var req struct {
			FullName  string `json:"full_name"`
			Line1     string `json:"line1"`
			Line2     string `json:"line2"`
			City      string `json:"city"`
			State     string `json:"state"`
			ZipCode   string `json:"zip_code"`
			Country   string `json:"country"`
			IsDefault bool   `json:"is_default"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, iris.StatusBadRequest, err.Error())
			return nil, false
		}
		return &service.AddressInput{
			FullName:  req.FullName,
			Line1:     req.Line1,
			Line2:     req.Line2,
			City:      req.City,
			State:     req.State,
			ZipCode:   req.ZipCode,
			Country:   req.Country,
			IsDefault: req.IsDefault,
		}, true
	}

	addresses.Post("/", func(ctx iris.Context) {
		in, okRead := readAddressInput(ctx)
		if !okRead {
			return
		}
		a, err := d.addressSvc.Create(ctx.Request().Context(), middleware.CurrentUserID(ctx), *in)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, a)
	})

	addresses.Put("/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		in, okRead := readAddressInput(ctx)
		if !okRead {
			return
		}
		a, err := d.addressSvc.Update(ctx.Request().Context(), middleware.CurrentUserID(ctx), id, *in)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, a)
	})

	addresses.Delete("/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := d.addressSvc.Delete(ctx.Request().Context(), middleware.CurrentUserID(ctx), id); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"deleted": id})
	})
}
