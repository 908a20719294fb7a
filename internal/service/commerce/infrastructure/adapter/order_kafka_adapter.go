package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"mycommerce/internal/pkg/mq"
	"mycommerce/internal/service/commerce/domain/port"
)

// OrderKafkaAdapter 把订单事件发布到 Kafka，是 port.OrderNotifier 的实现。
// 消息按 UserID 分区，同一用户的事件保持有序。
type OrderKafkaAdapter struct {
	writer *kafka.Writer
}

// NewOrderKafkaAdapter 创建 Kafka 订单事件适配器
func NewOrderKafkaAdapter(writer *kafka.Writer) *OrderKafkaAdapter {
	return &OrderKafkaAdapter{writer: writer}
}

// Notify 发布一条订单事件
func (a *OrderKafkaAdapter) Notify(ctx context.Context, event port.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(event.UserID), payload)
}

// MultiNotifier 把同一事件广播给多个通知端，返回第一个失败
type MultiNotifier []port.OrderNotifier

// Notify 逐个通知
func (m MultiNotifier) Notify(ctx context.Context, event port.OrderEvent) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
