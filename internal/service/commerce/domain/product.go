package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus 商品展示状态。
// 它只是参考信息：扣减决策永远以 Stock 字段为准，不以状态为准。
type ProductStatus string

const (
	ProductAvailable    ProductStatus = "AVAILABLE"
	ProductOutOfStock   ProductStatus = "OUT_OF_STOCK"
	ProductDiscontinued ProductStatus = "DISCONTINUED"
)

// Product 是商品（库存记录）实体。
// Stock 与 Version 构成库存账本：Version 在每次提交写入时单调递增，
// 所有库存变更必须经过 StockService 的加锁路径，不允许裸写。
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Status      ProductStatus
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct 创建一个新商品，商品在录入目录时创建一次，之后不再重建
func NewProduct(name, description string, price decimal.Decimal, stock int) (*Product, error) {
	if name == "" {
		return nil, errors.New("product name is required")
	}
	if price.IsNegative() {
		return nil, errors.New("product price must not be negative")
	}
	if stock < 0 {
		return nil, &InvalidQuantityError{Quantity: stock}
	}

	now := time.Now()
	return &Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		Status:      ProductAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// DecreaseStock 扣减库存。
// 纯内存修改：持久化是调用方（仓储）的责任，加锁也是调用方的责任，
// 本方法假设调用方已持有该记录背后数据行的独占访问权。
// 要么完整成功，要么毫无副作用。
func (p *Product) DecreaseStock(quantity int) error {
	if quantity <= 0 {
		return &InvalidQuantityError{Quantity: quantity}
	}
	if quantity > p.Stock {
		return &InsufficientStockError{ProductID: p.ID, Requested: quantity, Available: p.Stock}
	}

	p.Stock -= quantity
	if p.Stock == 0 {
		p.Status = ProductOutOfStock
	}
	return nil
}

// IncreaseStock 增加库存，补货与扣减补偿共用，校验规则与扣减对称
func (p *Product) IncreaseStock(quantity int) error {
	if quantity <= 0 {
		return &InvalidQuantityError{Quantity: quantity}
	}

	p.Stock += quantity
	if p.Status == ProductOutOfStock {
		p.Status = ProductAvailable
	}
	return nil
}

// UpdateInfo 修改商品基本信息。
// 只允许改名称、描述、价格；库存与版本不从这里走。
// 改价不影响已生成订单项里的价格快照。
func (p *Product) UpdateInfo(name, description string, price decimal.Decimal) error {
	if name == "" {
		return errors.New("product name is required")
	}
	if price.IsNegative() {
		return errors.New("product price must not be negative")
	}

	p.Name = name
	p.Description = description
	p.Price = price
	return nil
}
