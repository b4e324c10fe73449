package domain

import (
	"context"
	"time"
)

type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Stock     int64     `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Stock *int64 `json:"stock" validate:"required,min=0"`
}

type UpdateStockRequest struct {
	Stock *int64 `json:"stock" query:"stock" validate:"required,min=0"`
}

// StockUpdateResult is returned by mutations. Synced is false when the
// store write succeeded but the change could not be broadcast.
type StockUpdateResult struct {
	Product Product `json:"product"`
	Synced  bool    `json:"synced"`
	Warning string  `json:"warning,omitempty"`
}

type ProductList struct {
	Count    int       `json:"count"`
	Products []Product `json:"products"`
}

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (Product, error)
	UpdateStock(ctx context.Context, id, stock int64) (Product, error)
	Create(ctx context.Context, product *Product) error
	List(ctx context.Context) ([]Product, error)
}

type ProductService interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context) (ProductList, error)
	CreateProduct(ctx context.Context, req ProductCreateRequest) (StockUpdateResult, error)
	UpdateStock(ctx context.Context, id int64, req UpdateStockRequest) (StockUpdateResult, error)
}
