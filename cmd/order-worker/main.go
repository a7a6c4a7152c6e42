package main

import (
	"context"
	"encoding/json"
	"fmt"

	radix "github.com/mediocregopher/radix/v3"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/datamodels/product"
	infralog "github.com/example/gomarket/internal/infra/log"
	"github.com/example/gomarket/internal/infra/mq"
	"github.com/example/gomarket/internal/infra/redis"
	"github.com/example/gomarket/internal/repository/mysql"
	"github.com/example/gomarket/internal/service"
)

// redisAvailKey 商品可售数量缓存，店面读侧用
const redisAvailKey = "product:avail:%d"

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		panic(err)
	}
	infralog.Init(false)
	defer func() { _ = zap.L().Sync() }()

	db := mysql.Init(&cfg.MySQL)
	mqConn := mq.Init(&cfg.RabbitMQ)
	redisClient := redis.Init(&cfg.Redis)

	productRepo := mysql.NewProductRepository(db)

	ch, err := mqConn.Channel()
	if err != nil {
		zap.L().Fatal("open channel failed", zap.Error(err))
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(service.OrderEventsQueue, true, false, false, false, nil); err != nil {
		zap.L().Fatal("declare queue failed", zap.Error(err))
	}

	// 手动确认模式（auto-ack=false）
	msgs, err := ch.Consume(service.OrderEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		zap.L().Fatal("consume failed", zap.Error(err))
	}

	zap.L().Info("order worker started, waiting for events")

	for d := range msgs {
		var ev service.OrderEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			zap.L().Warn("invalid event body", zap.Error(err))
			// 消息格式错误，拒绝并丢弃
			_ = d.Nack(false, false)
			continue
		}
		handleEvent(context.Background(), productRepo, redisClient, &ev, d)
	}
}

// handleEvent 刷新事件涉及商品的可售数量缓存。
// 临时性失败（DB/Redis）重新入队，成功后确认。
func handleEvent(ctx context.Context, productRepo product.Repository, redisClient radix.Client, ev *service.OrderEvent, d amqp.Delivery) {
	for _, productID := range ev.ProductIDs {
		p, err := productRepo.GetByID(ctx, productID)
		if err != nil {
			zap.L().Warn("load product failed",
				zap.Int64("product_id", productID), zap.Error(err))
			service.GetMonitor().RecordDBError()
			service.GetMonitor().RecordWorkerFailed()
			_ = d.Nack(false, true)
			return
		}

		key := fmt.Sprintf(redisAvailKey, p.ID)
		if err := redisClient.Do(radix.FlatCmd(nil, "SET", key, p.Available())); err != nil {
			zap.L().Warn("refresh avail cache failed",
				zap.Int64("product_id", p.ID), zap.Error(err))
			service.GetMonitor().RecordRedisError()
			service.GetMonitor().RecordWorkerFailed()
			_ = d.Nack(false, true)
			return
		}
	}

	zap.L().Info("order event processed",
		zap.String("type", ev.Type),
		zap.Int64("order_id", ev.OrderID),
		zap.Int("products", len(ev.ProductIDs)))
	service.GetMonitor().RecordWorkerProcessed()

	if err := d.Ack(false); err != nil {
		zap.L().Warn("ack failed", zap.Error(err))
	}
}
