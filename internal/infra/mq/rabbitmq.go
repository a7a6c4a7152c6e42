package mq

import (
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/gomarket/internal/config"
)

var (
	conn *amqp.Connection
	once sync.Once
)

// Init 建立 RabbitMQ 连接，进程内复用；channel 由调用方按需开关
func Init(cfg *config.RabbitMQConfig) *amqp.Connection {
	once.Do(func() {
		c, err := amqp.Dial(cfg.URL)
		if err != nil {
			zap.L().Fatal("connect rabbitmq failed", zap.Error(err))
		}
		conn = c
	})
	return conn
}

// Conn 获取已建立的连接
func Conn() *amqp.Connection {
	return conn
}
