package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus 订单生命周期状态。
// 合法流转：PENDING -> PAID -> SHIPPING -> COMPLETED；
// PENDING / PAID 可以流转到 CANCELLED。
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipping  OrderStatus = "SHIPPING"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// OrderItem 订单项。
// 只按 ID 引用商品，避免跨事务边界持有过期的商品实体；
// Price 是下单时刻的单价快照，之后改价不随动——这是正确性约束，不是便利。
type OrderItem struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

// Subtotal 订单项小计
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order 是订单聚合根，独占其订单项的生命周期：一起创建、一起销毁。
// 创建后只有状态流转会修改它。
type Order struct {
	ID         string
	UserID     string
	Status     OrderStatus
	TotalPrice decimal.Decimal
	Items      []OrderItem
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrder 创建一个待支付的空订单
func NewOrder(userID string) *Order {
	now := time.Now()
	return &Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Status:     OrderPending,
		TotalPrice: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AddItem 追加订单项并累加总价
func (o *Order) AddItem(item OrderItem) {
	o.Items = append(o.Items, item)
	o.TotalPrice = o.TotalPrice.Add(item.Subtotal())
}

// MarkPaid 支付完成
func (o *Order) MarkPaid() error {
	if o.Status != OrderPending {
		return o.transitionError(OrderPaid)
	}
	o.changeStatus(OrderPaid)
	return nil
}

// MarkShipping 开始配送
func (o *Order) MarkShipping() error {
	if o.Status != OrderPaid {
		return o.transitionError(OrderShipping)
	}
	o.changeStatus(OrderShipping)
	return nil
}

// Complete 配送完成
func (o *Order) Complete() error {
	if o.Status != OrderShipping {
		return o.transitionError(OrderCompleted)
	}
	o.changeStatus(OrderCompleted)
	return nil
}

// Cancel 取消订单，仅允许从 PENDING / PAID 取消。
// TODO: 库存恢复与退款尚未实现；实现时库存必须走 StockService 的加锁恢复路径
func (o *Order) Cancel() error {
	if o.Status != OrderPending && o.Status != OrderPaid {
		return o.transitionError(OrderCancelled)
	}
	o.changeStatus(OrderCancelled)
	return nil
}

func (o *Order) changeStatus(status OrderStatus) {
	o.Status = status
	o.UpdatedAt = time.Now()
}

func (o *Order) transitionError(target OrderStatus) error {
	return fmt.Errorf("%w: order %s cannot go from %s to %s",
		ErrInvalidStatusTransition, o.ID, o.Status, target)
}
