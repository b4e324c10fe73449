package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"inventory-sync-service/app/domain"
)

const publishWarning = "stock saved but the change could not be broadcast to other replicas"

type productUsecase struct {
	productRepo    domain.ProductRepository
	stockPublisher domain.ChangePublisher
	mirror         domain.StockMirror
}

func NewProductUsecase(productRepo domain.ProductRepository, stockPublisher domain.ChangePublisher, mirror domain.StockMirror) domain.ProductService {
	return &productUsecase{productRepo, stockPublisher, mirror}
}

func (u *productUsecase) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	product, err := u.productRepo.GetByID(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "[productUsecase] GetProduct", "getByID", err)
		return domain.Product{}, err
	}
	return product, nil
}

func (u *productUsecase) ListProducts(ctx context.Context) (domain.ProductList, error) {
	products, err := u.productRepo.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[productUsecase] ListProducts", "list", err)
		return domain.ProductList{}, err
	}

	if len(products) == 0 {
		slog.InfoContext(ctx, "[productUsecase] ListProducts", "noProductsFound", nil)
		return domain.ProductList{}, fmt.Errorf("%w: no products found in the database", domain.ErrNotFound)
	}

	return domain.ProductList{Count: len(products), Products: products}, nil
}

func (u *productUsecase) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.StockUpdateResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.StockUpdateResult{}, fmt.Errorf("%w: name must not be blank", domain.ErrInvalidRequest)
	}
	if req.Stock == nil || *req.Stock < 0 {
		return domain.StockUpdateResult{}, fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidRequest)
	}

	product := domain.Product{Name: name, Stock: *req.Stock}
	if err := u.productRepo.Create(ctx, &product); err != nil {
		slog.ErrorContext(ctx, "[productUsecase] CreateProduct", "create", err)
		return domain.StockUpdateResult{}, err
	}

	slog.InfoContext(ctx, "[productUsecase] CreateProduct", "productID", product.ID, "stock", product.Stock)
	return u.announce(ctx, "CreateProduct", product), nil
}

func (u *productUsecase) UpdateStock(ctx context.Context, id int64, req domain.UpdateStockRequest) (domain.StockUpdateResult, error) {
	if req.Stock == nil || *req.Stock < 0 {
		return domain.StockUpdateResult{}, fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidRequest)
	}

	product, err := u.productRepo.UpdateStock(ctx, id, *req.Stock)
	if err != nil {
		slog.ErrorContext(ctx, "[productUsecase] UpdateStock", "updateStock", err, "productID", id)
		return domain.StockUpdateResult{}, err
	}

	slog.InfoContext(ctx, "[productUsecase] UpdateStock", "productID", product.ID, "stock", product.Stock)
	return u.announce(ctx, "UpdateStock", product), nil
}

// announce mirrors and broadcasts a committed write. The write is never
// rolled back: a failed publish only downgrades the result to a warning.
func (u *productUsecase) announce(ctx context.Context, op string, product domain.Product) domain.StockUpdateResult {
	ev := domain.ChangeEvent{ProductID: product.ID, Stock: product.Stock}
	u.mirror.Apply(ev)

	result := domain.StockUpdateResult{Product: product, Synced: true}
	if err := u.stockPublisher.PublishStockChange(ctx, ev); err != nil {
		slog.WarnContext(ctx, "[productUsecase] "+op, "publishStockChange", err,
			"productID", ev.ProductID, "stock", ev.Stock)
		result.Synced = false
		result.Warning = publishWarning
	}
	return result
}
