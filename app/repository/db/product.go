package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"inventory-sync-service/app/domain"
)

type productRepository struct {
	conn *sql.DB
}

func NewProductRepository(db *sql.DB) domain.ProductRepository {
	return &productRepository{db}
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	query := `SELECT id, name, stock, created_at, updated_at
	FROM products WHERE id = $1`

	var product domain.Product
	err := r.conn.QueryRowContext(ctx, query, id).Scan(&product.ID, &product.Name,
		&product.Stock, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return product, domain.ErrNotFound
		}
		slog.ErrorContext(ctx, "[productRepository] GetByID", "queryRowContext", err)
		return product, err
	}

	return product, nil
}

func (r *productRepository) UpdateStock(ctx context.Context, id, stock int64) (domain.Product, error) {
	query := `UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2
	RETURNING id, name, stock, created_at, updated_at`

	var product domain.Product
	err := r.conn.QueryRowContext(ctx, query, stock, id).Scan(&product.ID, &product.Name,
		&product.Stock, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return product, domain.ErrNotFound
		}
		slog.ErrorContext(ctx, "[productRepository] UpdateStock", "queryRowContext", err)
		return product, err
	}

	slog.InfoContext(ctx, "[productRepository] UpdateStock", "productID", id, "stock", stock)
	return product, nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (name, stock)
	VALUES ($1, $2)
	RETURNING id, created_at, updated_at`

	err := r.conn.QueryRowContext(ctx, query, product.Name, product.Stock).
		Scan(
			&product.ID,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] Create", "queryRowContext", err)
		return err
	}
	return nil
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT id, name, stock, created_at, updated_at
	FROM products ORDER BY id`

	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] List", "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Stock,
			&product.CreatedAt, &product.UpdatedAt); err != nil {
			slog.ErrorContext(ctx, "[productRepository] List", "scan", err)
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[productRepository] List", "rowError", err)
		return nil, err
	}

	return products, nil
}
