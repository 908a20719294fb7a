package infrastructure

import (
	"mycommerce/internal/service/commerce/domain"
)

// ToDomainProduct 把数据库模型转换为领域模型
func ToDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:          m.ProductID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Stock:       m.Stock,
		Status:      domain.ProductStatus(m.Status),
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToProductModel 把领域模型转换为数据库模型（创建用）
func ToProductModel(p *domain.Product) *ProductModel {
	return &ProductModel{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Status:      string(p.Status),
		Version:     p.Version,
	}
}

// ToDomainOrder 把订单模型（含订单项）转换为领域聚合
func ToDomainOrder(m *OrderModel) *domain.Order {
	order := &domain.Order{
		ID:         m.OrderID,
		UserID:     m.UserID,
		Status:     domain.OrderStatus(m.Status),
		TotalPrice: m.TotalPrice,
		Version:    m.Version,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	for _, item := range m.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return order
}

// ToOrderModel 把订单聚合转换为数据库模型（创建用），订单项随聚合一起写入
func ToOrderModel(o *domain.Order) *OrderModel {
	model := &OrderModel{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		TotalPrice: o.TotalPrice,
		Version:    o.Version,
	}
	for _, item := range o.Items {
		model.Items = append(model.Items, OrderItemModel{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return model
}

// ToDomainUser 把用户模型转换为领域模型
func ToDomainUser(m *UserModel) *domain.User {
	return &domain.User{
		ID:        m.UserID,
		Name:      m.Name,
		Email:     m.Email,
		Status:    domain.UserStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ToUserModel 把领域用户转换为数据库模型
func ToUserModel(u *domain.User) *UserModel {
	return &UserModel{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Status: string(u.Status),
	}
}
