package service

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OrderEventsQueue 订单事件队列，worker 侧消费
const OrderEventsQueue = "order_events"

// 订单事件类型
const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
	EventOrderDelivered = "order.delivered"
)

// OrderEvent 订单生命周期事件，驱动 worker 刷新可售缓存
type OrderEvent struct {
	Type       string  `json:"type"`
	OrderID    int64   `json:"order_id"`
	BuyerID    int64   `json:"buyer_id"`
	ProductIDs []int64 `json:"product_ids"`
}

// EventPublisher 把订单事件写入 MQ
type EventPublisher struct {
	conn *amqp.Connection
}

func NewEventPublisher(conn *amqp.Connection) *EventPublisher {
	return &EventPublisher{conn: conn}
}

// Publish 声明队列并投递事件，失败计入监控
func (p *EventPublisher) Publish(ctx context.Context, ev *OrderEvent) error {
	if p == nil || p.conn == nil {
		return nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		GetMonitor().RecordMQError()
		return err
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(OrderEventsQueue, true, false, false, false, nil); err != nil {
		GetMonitor().RecordMQError()
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err = ch.PublishWithContext(
		ctx,
		"",
		OrderEventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		GetMonitor().RecordMQError()
		return err
	}
	return nil
}
