package main

import (
	"fmt"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/gomarket/internal/config"
	infralog "github.com/example/gomarket/internal/infra/log"
	"github.com/example/gomarket/internal/server"
)

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		panic(err)
	}
	infralog.Init(false)
	defer func() { _ = zap.L().Sync() }()

	app := iris.New()
	tmpl := iris.HTML("./web/views", ".html").Layout("shared/layout.html")
	// 价格格式化：分 -> 美元（例如 990 -> $9.90）
	tmpl.AddFunc("formatPrice", func(price int64) string {
		return fmt.Sprintf("$%.2f", float64(price)/100.0)
	})
	app.RegisterView(tmpl)

	server.RegisterRoutes(app, cfg)

	addr := cfg.Server.Addr()
	zap.L().Info("web server listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zap.L().Fatal("web server exited", zap.Error(err))
	}
}
