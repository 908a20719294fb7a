package application

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mycommerce/internal/pkg/logger"
	"mycommerce/internal/service/commerce/domain"
	"mycommerce/internal/service/commerce/domain/port"
)

// OrderService 负责订单创建的编排。
//
// 三阶段协议：
//   - Phase 1 预校验（不加任何锁）：解析用户、批量加载商品、
//     快速拒绝注定失败的订单。允许假阴性——校验通过后库存仍可能
//     被并发订单抢走，唯一事实以 Phase 2 为准。
//   - Phase 2 加锁扣减：逐行调用 StockService，每一行在自己的
//     独立事务里提交。
//   - Phase 3 组装落库：价格快照、Mock 支付、持久化，与 Phase 1
//     同在一个外层事务中。
type OrderService struct {
	orders   domain.OrderRepository
	products domain.ProductRepository
	users    domain.UserRepository
	stock    *StockService
	txm      port.TransactionManager
	payment  port.PaymentGateway
	notifier port.OrderNotifier
	tracer   trace.Tracer

	// restoreStockOnFailure 控制 Phase 2 中途失败时是否恢复已扣减的行。
	// 关闭后保留历史行为：已提交的扣减不回滚，多行订单失败会丢库存。
	restoreStockOnFailure bool
}

// NewOrderService 创建订单服务实例
func NewOrderService(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	users domain.UserRepository,
	stock *StockService,
	txm port.TransactionManager,
	payment port.PaymentGateway,
	notifier port.OrderNotifier,
	restoreStockOnFailure bool,
) *OrderService {
	return &OrderService{
		orders:                orders,
		products:              products,
		users:                 users,
		stock:                 stock,
		txm:                   txm,
		payment:               payment,
		notifier:              notifier,
		tracer:                otel.Tracer("commerce.order"),
		restoreStockOnFailure: restoreStockOnFailure,
	}
}

// CreateOrder 创建订单
func (s *OrderService) CreateOrder(ctx context.Context, userID string, items []OrderItemRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int("order.lines", len(items)),
	))
	defer span.End()

	if len(items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	var created *domain.Order
	err := s.txm.Transaction(ctx, func(ctx context.Context) error {
		// ===== Phase 1: 预校验（快速失败，不加任何锁） =====
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(items))
		for _, item := range items {
			if item.Quantity <= 0 {
				return &domain.InvalidQuantityError{Quantity: item.Quantity}
			}
			ids = append(ids, item.ProductID)
		}

		productMap, err := s.products.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, item := range items {
			product, ok := productMap[item.ProductID]
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, item.ProductID)
			}
			if item.Quantity > product.Stock {
				return &domain.InsufficientStockError{
					ProductID: product.ID,
					Requested: item.Quantity,
					Available: product.Stock,
				}
			}
		}

		// ===== Phase 2: 加锁扣减 =====
		// 每一行在独立事务中提交，外层回滚不会撤销它们；
		// 中途失败时通过补偿恢复已扣减的行（可配置关闭以保留旧行为）。
		for i, item := range items {
			if err := s.stock.DecreaseStockWithLock(ctx, item.ProductID, item.Quantity); err != nil {
				if s.restoreStockOnFailure {
					s.restoreDecremented(ctx, items[:i])
				}
				return err
			}
		}

		// ===== Phase 3: 组装与落库 =====
		order := domain.NewOrder(user.ID)
		for _, item := range items {
			product := productMap[item.ProductID]
			order.AddItem(domain.OrderItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				Price:     product.Price, // 下单时刻的价格快照
			})
		}

		if err := s.payment.Process(ctx, order); err != nil {
			return fmt.Errorf("process payment for order %s: %w", order.ID, err)
		}

		if err := s.orders.Save(ctx, order); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		ordersFailed.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "order creation failed")
		return nil, err
	}

	ordersCreated.Inc()
	span.SetAttributes(attribute.String("order.id", created.ID))
	logger.Ctx(ctx).Info().Str("order_id", created.ID).Str("user_id", created.UserID).
		Str("total_price", created.TotalPrice.String()).Msg("order created")

	s.notify(ctx, port.OrderEvent{
		EventType:  port.EventOrderPlaced,
		OrderID:    created.ID,
		UserID:     created.UserID,
		Status:     string(created.Status),
		TotalPrice: created.TotalPrice.String(),
		OccurredAt: created.CreatedAt,
	})
	return created, nil
}

// restoreDecremented 恢复当前订单里已经扣减成功的行。
// 恢复本身失败时只能记错误日志等待人工介入，与补偿失败的处理方式相同。
func (s *OrderService) restoreDecremented(ctx context.Context, done []OrderItemRequest) {
	for _, item := range done {
		if err := s.stock.IncreaseStockWithLock(ctx, item.ProductID, item.Quantity); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("product_id", item.ProductID).Int("quantity", item.Quantity).
				Msg("failed to restore decremented stock, manual intervention required")
		}
	}
}

// GetOrder 查询单个订单。只有下单用户本人可见。
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.orders.FindByIDWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return order, nil
}

// ListUserOrders 查询用户的全部订单
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.FindAllByUserIDWithItems(ctx, userID)
}

// CancelOrder 取消订单。
// 只做归属校验和状态流转；库存恢复与退款尚未实现（与上游一致），
// 实现时库存必须走 StockService 的加锁恢复路径。
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID string) error {
	ctx, span := s.tracer.Start(ctx, "app.CancelOrder", trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer span.End()

	var cancelled *domain.Order
	err := s.txm.Transaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.FindByIDWithItems(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return domain.ErrUnauthorized
		}

		if err := order.Cancel(); err != nil {
			return err
		}
		if err := s.orders.Save(ctx, order); err != nil {
			return err
		}
		cancelled = order
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	logger.Ctx(ctx).Info().Str("order_id", cancelled.ID).Msg("order cancelled")
	s.notify(ctx, port.OrderEvent{
		EventType:  port.EventOrderCancelled,
		OrderID:    cancelled.ID,
		UserID:     cancelled.UserID,
		Status:     string(cancelled.Status),
		TotalPrice: cancelled.TotalPrice.String(),
		OccurredAt: cancelled.UpdatedAt,
	})
	return nil
}

func (s *OrderService) notify(ctx context.Context, event port.OrderEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", event.OrderID).
			Msg("failed to publish order event")
	}
}
