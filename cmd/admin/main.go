package main

import (
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
	server.RegisterAdminRoutes(app, cfg)

	addr := cfg.AdminServer.Addr()
	zap.L().Info("admin server listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zap.L().Fatal("admin server exited", zap.Error(err))
	}
}
