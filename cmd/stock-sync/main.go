package main

import (
	"context"
	"fmt"
	"time"

	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"

	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/datamodels/product"
	infralog "github.com/example/gomarket/internal/infra/log"
	"github.com/example/gomarket/internal/infra/redis"
	"github.com/example/gomarket/internal/repository/mysql"
)

const (
	redisAvailKey = "product:avail:%d" // productID
	checkInterval = 5 * time.Minute
	pageSize      = 200
)

// 定期核对已上架商品的可售数量缓存，以 MySQL 为准修复 Redis。
// worker 漏掉的事件（MQ 抖动、进程重启）由这里兜底。
func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		panic(err)
	}
	infralog.Init(false)
	defer func() { _ = zap.L().Sync() }()

	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	productRepo := mysql.NewProductRepository(db)

	zap.L().Info("avail cache sync started", zap.Duration("interval", checkInterval))

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	checkAndSync(context.Background(), productRepo, redisClient)
	for range ticker.C {
		checkAndSync(context.Background(), productRepo, redisClient)
	}
}

func checkAndSync(ctx context.Context, productRepo product.Repository, redisClient radix.Client) {
	var (
		inconsistent int
		synced       int
	)
	for page := 1; ; page++ {
		products, _, err := productRepo.ListPublished(ctx, page, pageSize)
		if err != nil {
			zap.L().Error("list published products failed", zap.Error(err))
			return
		}
		if len(products) == 0 {
			break
		}

		for _, p := range products {
			key := fmt.Sprintf(redisAvailKey, p.ID)
			var cached int64
			err := redisClient.Do(radix.Cmd(&cached, "GET", key))
			if err != nil || cached != p.Available() {
				inconsistent++
				if syncErr := redisClient.Do(radix.FlatCmd(nil, "SET", key, p.Available())); syncErr != nil {
					zap.L().Warn("sync avail cache failed",
						zap.Int64("product_id", p.ID), zap.Error(syncErr))
					continue
				}
				synced++
			}
		}

		if len(products) < pageSize {
			break
		}
	}
	zap.L().Info("avail cache sync finished",
		zap.Int("inconsistent", inconsistent), zap.Int("synced", synced))
}
