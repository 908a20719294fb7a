package application

import (
	"context"

	"mycommerce/internal/service/commerce/domain"
	"mycommerce/internal/service/commerce/domain/port"
)

// ProductService 商品目录的增删改查。
// 库存变更不在这里：必须经由 StockService 的加锁路径。
type ProductService struct {
	products domain.ProductRepository
	txm      port.TransactionManager
}

// NewProductService 创建商品服务实例
func NewProductService(products domain.ProductRepository, txm port.TransactionManager) *ProductService {
	return &ProductService{products: products, txm: txm}
}

// CreateProduct 录入一个新商品，商品只在此时创建一次
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.Product, error) {
	product, err := domain.NewProduct(req.Name, req.Description, req.Price, req.Stock)
	if err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// FindProductByID 查询单个商品
func (s *ProductService) FindProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// FindAllProducts 查询全部商品
func (s *ProductService) FindAllProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.products.FindAll(ctx)
}

// UpdateProduct 修改商品基本信息。
// 走带版本校验的写回：并发的库存写入会让这里返回 ErrVersionConflict，
// 调用方重试即可。改价不影响已有订单项的价格快照。
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*domain.Product, error) {
	var updated *domain.Product
	err := s.txm.Transaction(ctx, func(ctx context.Context) error {
		product, err := s.products.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := product.UpdateInfo(req.Name, req.Description, req.Price); err != nil {
			return err
		}
		if err := s.products.Update(ctx, product); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProduct 删除商品；被订单项引用的商品不允许删除
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}
