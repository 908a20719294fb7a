package domain

import "context"

// ProductRepository 定义商品持久化接口。
// 它位于领域层，由基础设施层实现。
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error

	FindByID(ctx context.Context, id string) (*Product, error)

	// FindByIDs 批量查询，返回 productID -> Product 映射；缺失的 ID 不出现在结果里
	FindByIDs(ctx context.Context, ids []string) (map[string]*Product, error)

	FindAll(ctx context.Context) ([]*Product, error)

	// FindByIDForUpdate 以悲观行锁（SELECT ... FOR UPDATE）读取商品。
	// 必须在事务内调用，行锁保持到该事务提交或回滚为止。
	FindByIDForUpdate(ctx context.Context, id string) (*Product, error)

	// Update 带版本校验写回：存储侧比较 product.Version 与当前行版本，
	// 不一致返回 ErrVersionConflict，一致则写入并把版本加一。
	Update(ctx context.Context, product *Product) error

	// Delete 删除商品；被订单项引用的商品返回 ErrProductInUse
	Delete(ctx context.Context, id string) error
}

// OrderRepository 定义订单聚合持久化接口
type OrderRepository interface {
	// Save 保存订单聚合（创建或状态更新）；更新带版本校验
	Save(ctx context.Context, order *Order) error

	// FindByIDWithItems 查询订单及其全部订单项
	FindByIDWithItems(ctx context.Context, id string) (*Order, error)

	// FindAllByUserIDWithItems 查询用户的全部订单（含订单项）
	FindAllByUserIDWithItems(ctx context.Context, userID string) ([]*Order, error)
}

// UserRepository 定义用户持久化接口
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
}
