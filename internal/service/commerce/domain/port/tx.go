package port

import "context"

// TransactionManager 管理工作单元（事务）边界，事务句柄通过 context 向下传递。
type TransactionManager interface {
	// Transaction 加入当前工作单元；不存在则开启一个新的。
	// fn 返回错误时整个工作单元回滚。
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// IndependentTransaction 总是开启独立的工作单元，先于外层提交。
	// 库存扣减必须用它：行写入落盘后分布式锁才能立刻释放。
	// 代价是外层失败不会回滚这里已提交的内容——这正是多行订单
	// 部分失败需要显式补偿的原因。
	IndependentTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
