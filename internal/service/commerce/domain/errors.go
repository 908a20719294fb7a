package domain

import (
	"errors"
	"fmt"
)

// 错误分类约定：
//   - 校验类 / 未找到类错误在任何锁之前被拒绝；
//   - 容量类（库存不足）可能出现在预校验或加锁扣减两个阶段，
//     两个路径共享同一错误形态，调用方无法也不需要区分时机；
//   - 并发类（锁超时、版本冲突）是瞬时失败，语义上与"售罄"不同，
//     是否重试由调用方决定，核心层不做自动重试。
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrUnauthorized    = errors.New("user does not own this order")
	ErrEmptyOrder      = errors.New("order must contain at least one item")
	ErrAlreadyExists   = errors.New("record already exists")

	// ErrProductInUse 商品已被订单项引用时不允许删除
	ErrProductInUse = errors.New("product is referenced by existing order items")

	// ErrLockTimeout 在限定时间内没有拿到分布式锁。
	// 这不代表商品售罄，调用方应提示"稍后重试"。
	ErrLockTimeout = errors.New("timed out acquiring stock lock")

	// ErrVersionConflict 乐观锁版本校验失败，说明有写入绕过了行锁
	ErrVersionConflict = errors.New("stock version conflict")

	// ErrInvalidStatusTransition 订单状态机不允许的流转
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// InvalidQuantityError 数量不合法（必须 >= 1）
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity: %d (must be at least 1)", e.Quantity)
}

// InsufficientStockError 库存不足，携带调用方展示所需的明细
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: product=%s requested=%d available=%d",
		e.ProductID, e.Requested, e.Available)
}
