package port

import (
	"context"

	"mycommerce/internal/service/commerce/domain"
)

// PaymentGateway 支付网关出站端口。
// 当前只有 Mock 实现，真实网关接入是显式的扩展点。
type PaymentGateway interface {
	Process(ctx context.Context, order *domain.Order) error
}
