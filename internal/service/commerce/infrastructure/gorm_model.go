package infrastructure

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductModel 对应数据库中的 products 表。
// Version 列由仓储在每次提交写入时加一，是乐观锁的比较对象。
type ProductModel struct {
	gorm.Model
	ProductID   string          `gorm:"uniqueIndex;size:36;not null"`
	Name        string          `gorm:"size:200;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock       int             `gorm:"not null"`
	Status      string          `gorm:"size:20;not null"`
	Version     int64           `gorm:"not null;default:0"`
}

// TableName 指定 GORM 应该使用的表名
func (ProductModel) TableName() string {
	return "products"
}

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	gorm.Model
	OrderID    string           `gorm:"uniqueIndex;size:36;not null"`
	UserID     string           `gorm:"index;size:36;not null"`
	Status     string           `gorm:"size:20;not null"`
	TotalPrice decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	Version    int64            `gorm:"not null;default:0"`
	Items      []OrderItemModel `gorm:"foreignKey:OrderModelID;constraint:OnDelete:CASCADE"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应数据库中的 order_items 表。
// Price 是下单时刻的价格快照，写入后不再变化。
type OrderItemModel struct {
	gorm.Model
	OrderModelID uint            `gorm:"index;not null"`
	ProductID    string          `gorm:"index;size:36;not null"`
	Quantity     int             `gorm:"not null"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderItemModel) TableName() string {
	return "order_items"
}

// UserModel 对应数据库中的 users 表
type UserModel struct {
	gorm.Model
	UserID string `gorm:"uniqueIndex;size:36;not null"`
	Name   string `gorm:"size:100;not null"`
	Email  string `gorm:"uniqueIndex;size:200;not null"`
	Status string `gorm:"size:20;not null"`
}

// TableName 指定 GORM 应该使用的表名
func (UserModel) TableName() string {
	return "users"
}
