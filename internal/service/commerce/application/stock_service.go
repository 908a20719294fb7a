package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mycommerce/internal/pkg/logger"
	"mycommerce/internal/service/commerce/domain"
	"mycommerce/internal/service/commerce/domain/port"
)

const (
	stockLockPrefix = "lock:product:"

	// 等待与租约边界对应锁服务的 tryLock(10, 10)：
	// 有界等待避免争抢时无限排队，有界租约让进程崩溃后锁能自动释放
	defaultLockWait  = 10 * time.Second
	defaultLockLease = 10 * time.Second
)

// StockService 负责加锁的库存增减，是全系统唯一允许改写库存的路径。
//
// 三层防护，缺一不可：
//  1. 分布式锁：在触达存储之前就把并发调用方串行化，代价最低；
//  2. 悲观行锁：拦住没有走分布式锁的直接写库路径
//     （配置错误的其他实例、运维脚本）；
//  3. 乐观版本校验：前两层都被绕过时的最后一道检测。
//
// 任何一层单独存在都扛不住对抗性调度，三层必须同时成立。
type StockService struct {
	products domain.ProductRepository
	lock     port.LockClient
	txm      port.TransactionManager
	tracer   trace.Tracer

	lockWait  time.Duration
	lockLease time.Duration
}

// NewStockService 创建库存服务实例
func NewStockService(products domain.ProductRepository, lock port.LockClient, txm port.TransactionManager) *StockService {
	return &StockService{
		products:  products,
		lock:      lock,
		txm:       txm,
		tracer:    otel.Tracer("commerce.stock"),
		lockWait:  defaultLockWait,
		lockLease: defaultLockLease,
	}
}

// DecreaseStockWithLock 扣减指定商品的库存。
// 在独立事务中执行：行写入提交后锁立即释放，不等调用方的外层事务；
// 因此外层失败不会回滚这里已提交的扣减。
func (s *StockService) DecreaseStockWithLock(ctx context.Context, productID string, quantity int) error {
	return s.adjust(ctx, "stock.Decrease", productID, quantity, func(p *domain.Product) error {
		return p.DecreaseStock(quantity)
	})
}

// IncreaseStockWithLock 增加库存。补货和扣减补偿共用，与扣减走同一条加锁路径。
func (s *StockService) IncreaseStockWithLock(ctx context.Context, productID string, quantity int) error {
	return s.adjust(ctx, "stock.Increase", productID, quantity, func(p *domain.Product) error {
		return p.IncreaseStock(quantity)
	})
}

func (s *StockService) adjust(ctx context.Context, spanName, productID string, quantity int, mutate func(*domain.Product) error) error {
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	))
	defer span.End()

	// 数量校验在拿锁之前完成：不合法的请求不应支付任何加锁成本
	if quantity <= 0 {
		return &domain.InvalidQuantityError{Quantity: quantity}
	}

	key := stockLockPrefix + productID
	lock, err := s.lock.TryAcquire(ctx, key, s.lockWait, s.lockLease)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("acquire stock lock for %s: %w", productID, err)
	}
	if lock == nil {
		stockLockTimeouts.Inc()
		span.SetStatus(codes.Error, "lock acquisition timed out")
		return domain.ErrLockTimeout
	}

	// 成功、业务失败、异常，所有退出路径都必须释放锁；
	// 泄漏会把该商品的所有后续订单锁死
	defer func() {
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			logger.Ctx(ctx).Error().Err(releaseErr).Str("key", key).
				Msg("failed to release stock lock")
		}
	}()
	span.AddEvent("stock lock acquired")

	err = s.txm.IndependentTransaction(ctx, func(txCtx context.Context) error {
		// 行锁兜底：没走分布式锁的事务也无法并发读改写同一行
		product, err := s.products.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			return err
		}

		if err := mutate(product); err != nil {
			return err
		}

		// 版本校验是最后一道防线，检测绕过了上面两层锁的写入
		return s.products.Update(txCtx, product)
	})
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			stockVersionConflicts.Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock adjustment failed")
		return err
	}

	return nil
}
