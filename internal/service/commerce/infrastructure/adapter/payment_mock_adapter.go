package adapter

import (
	"context"

	"mycommerce/internal/pkg/logger"
	"mycommerce/internal/service/commerce/domain"
)

// MockPaymentAdapter 是 port.PaymentGateway 的 Mock 实现，始终批准。
// TODO: 接入真实支付网关后替换
type MockPaymentAdapter struct{}

// Process 记录一笔"已批准"的支付
func (MockPaymentAdapter) Process(ctx context.Context, order *domain.Order) error {
	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("total_price", order.TotalPrice.String()).
		Msg("mock payment approved")
	return nil
}
