package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"mycommerce/internal/service/commerce/domain"
)

func TestCreateAndFindProduct(t *testing.T) {
	repo := newMemProductRepo()
	svc := NewProductService(repo, fakeTxManager{})

	created, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name:        "keyboard",
		Description: "mechanical",
		Price:       decimal.NewFromFloat(79.99),
		Stock:       25,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	found, err := svc.FindProductByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("FindProductByID: %v", err)
	}
	if found.Name != "keyboard" || found.Stock != 25 {
		t.Errorf("found = %+v", found)
	}
	if found.Status != domain.ProductAvailable {
		t.Errorf("status = %s, want AVAILABLE", found.Status)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewProductService(newMemProductRepo(), fakeTxManager{})

	if _, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name: "", Price: decimal.NewFromInt(1), Stock: 1,
	}); err == nil {
		t.Error("empty name accepted")
	}

	_, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name: "x", Price: decimal.NewFromInt(1), Stock: -5,
	})
	var invalid *domain.InvalidQuantityError
	if !errors.As(err, &invalid) {
		t.Errorf("err = %v, want InvalidQuantityError", err)
	}
}

func TestUpdateProductKeepsStock(t *testing.T) {
	p := mustProduct(t, "keyboard", 100, 10)
	repo := newMemProductRepo(p)
	svc := NewProductService(repo, fakeTxManager{})

	updated, err := svc.UpdateProduct(context.Background(), p.ID, UpdateProductRequest{
		Name:        "keyboard v2",
		Description: "updated",
		Price:       decimal.NewFromInt(120),
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.Name != "keyboard v2" || !updated.Price.Equal(decimal.NewFromInt(120)) {
		t.Errorf("updated = %+v", updated)
	}
	if got := repo.stock(t, p.ID); got != 10 {
		t.Errorf("stock = %d, want 10 (updates must not touch stock)", got)
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	svc := NewProductService(newMemProductRepo(), fakeTxManager{})

	_, err := svc.UpdateProduct(context.Background(), "ghost", UpdateProductRequest{
		Name: "x", Price: decimal.NewFromInt(1),
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	p := mustProduct(t, "keyboard", 100, 10)
	repo := newMemProductRepo(p)
	svc := NewProductService(repo, fakeTxManager{})

	if err := svc.DeleteProduct(context.Background(), p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := svc.FindProductByID(context.Background(), p.ID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound after delete", err)
	}
}
