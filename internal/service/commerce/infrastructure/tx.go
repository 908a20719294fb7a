package infrastructure

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// GormTransactionManager 基于 GORM 实现工作单元。
// 事务句柄放进 context 向下传递，同一工作单元里的仓储调用
// 通过 dbFromContext 拿到同一个事务连接。
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager 创建事务管理器
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// Transaction 加入当前工作单元，不存在则开启一个新的
func (m *GormTransactionManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		// 已在事务中，直接加入
		return fn(ctx)
	}
	return m.begin(ctx, fn)
}

// IndependentTransaction 总是从根连接开启新事务。
// 内层先于外层提交，这正是库存扣减能提前落盘、
// 也因此无法被外层回滚的原因。
func (m *GormTransactionManager) IndependentTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.begin(ctx, fn)
}

func (m *GormTransactionManager) begin(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func txFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// dbFromContext 返回当前工作单元的连接；不在事务中则返回根连接
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return fallback.WithContext(ctx)
}
