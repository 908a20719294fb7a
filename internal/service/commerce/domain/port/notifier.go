package port

import (
	"context"
	"time"
)

const (
	EventOrderPlaced    = "ORDER_PLACED"
	EventOrderCancelled = "ORDER_CANCELLED"
)

// OrderEvent 推送给下游（Kafka / WebSocket）的订单事件
type OrderEvent struct {
	EventType  string    `json:"eventType"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	Status     string    `json:"status"`
	TotalPrice string    `json:"totalPrice"`
	OccurredAt time.Time `json:"occurredAt"`
}

// OrderNotifier 订单事件通知出站端口。
// 通知是尽力而为的：失败只记日志，不影响订单结果。
type OrderNotifier interface {
	Notify(ctx context.Context, event OrderEvent) error
}
