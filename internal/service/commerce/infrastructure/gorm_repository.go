package infrastructure

import (
	"context"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mycommerce/internal/service/commerce/domain"
)

const mysqlDuplicateEntry = 1062

func isDuplicateEntry(err error) bool {
	var mysqlErr *gomysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// GormProductRepository 是 domain.ProductRepository 的 GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository 创建商品仓储实例
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// Save 写入一个新商品
func (r *GormProductRepository) Save(ctx context.Context, product *domain.Product) error {
	if err := r.conn(ctx).Create(ToProductModel(product)).Error; err != nil {
		if isDuplicateEntry(err) {
			return domain.ErrAlreadyExists
		}
		return errors.Wrap(err, "create product")
	}
	return nil
}

// FindByID 按商品 ID 查询
func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel
	err := r.conn(ctx).Where("product_id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "find product")
	}
	return ToDomainProduct(&model), nil
}

// FindByIDs 批量查询，缺失的 ID 不出现在结果里
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	var models []ProductModel
	if err := r.conn(ctx).Where("product_id IN ?", ids).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "find products")
	}

	result := make(map[string]*domain.Product, len(models))
	for i := range models {
		result[models[i].ProductID] = ToDomainProduct(&models[i])
	}
	return result, nil
}

// FindAll 查询全部商品
func (r *GormProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	var models []ProductModel
	if err := r.conn(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "find all products")
	}

	products := make([]*domain.Product, 0, len(models))
	for i := range models {
		products = append(products, ToDomainProduct(&models[i]))
	}
	return products, nil
}

// FindByIDForUpdate 以 SELECT ... FOR UPDATE 读取商品。
// 必须在事务内调用，行锁保持到事务提交或回滚。
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "find product for update")
	}
	return ToDomainProduct(&model), nil
}

// Update 带版本校验写回。
// WHERE 带上读取时的版本：版本已变说明有写入绕过了行锁，
// 返回 ErrVersionConflict 而不是覆盖。
func (r *GormProductRepository) Update(ctx context.Context, product *domain.Product) error {
	result := r.conn(ctx).Model(&ProductModel{}).
		Where("product_id = ? AND version = ?", product.ID, product.Version).
		Updates(map[string]interface{}{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"stock":       product.Stock,
			"status":      string(product.Status),
			"version":     product.Version + 1,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "update product")
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}

	product.Version++
	return nil
}

// Delete 删除商品；被订单项引用的商品不允许删除
func (r *GormProductRepository) Delete(ctx context.Context, id string) error {
	var referenced int64
	if err := r.conn(ctx).Model(&OrderItemModel{}).
		Where("product_id = ?", id).
		Count(&referenced).Error; err != nil {
		return errors.Wrap(err, "count order items")
	}
	if referenced > 0 {
		return domain.ErrProductInUse
	}

	result := r.conn(ctx).Where("product_id = ?", id).Delete(&ProductModel{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete product")
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建订单仓储实例
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// Save 保存订单聚合。
// 新订单连同订单项一起创建；已存在的订单只更新状态（带版本校验），
// 订单项在创建后不再变化。
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	var existing OrderModel
	err := r.conn(ctx).Select("id", "version").Where("order_id = ?", order.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if createErr := r.conn(ctx).Create(ToOrderModel(order)).Error; createErr != nil {
			if isDuplicateEntry(createErr) {
				return domain.ErrAlreadyExists
			}
			return errors.Wrap(createErr, "create order")
		}
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "find order for save")
	}

	result := r.conn(ctx).Model(&OrderModel{}).
		Where("order_id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"status":  string(order.Status),
			"version": order.Version + 1,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "update order")
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}

	order.Version++
	return nil
}

// FindByIDWithItems 查询订单及其全部订单项
func (r *GormOrderRepository) FindByIDWithItems(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.conn(ctx).Preload("Items").Where("order_id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "find order")
	}
	return ToDomainOrder(&model), nil
}

// FindAllByUserIDWithItems 查询用户的全部订单，新订单在前
func (r *GormOrderRepository) FindAllByUserIDWithItems(ctx context.Context, userID string) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.conn(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "find user orders")
	}

	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, ToDomainOrder(&models[i]))
	}
	return orders, nil
}

// GormUserRepository 是 domain.UserRepository 的 GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository 创建用户仓储实例
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// Save 写入一个新用户
func (r *GormUserRepository) Save(ctx context.Context, user *domain.User) error {
	if err := r.conn(ctx).Create(ToUserModel(user)).Error; err != nil {
		if isDuplicateEntry(err) {
			return domain.ErrAlreadyExists
		}
		return errors.Wrap(err, "create user")
	}
	return nil
}

// FindByID 按用户 ID 查询
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var model UserModel
	err := r.conn(ctx).Where("user_id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "find user")
	}
	return ToDomainUser(&model), nil
}
