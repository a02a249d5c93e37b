// Package postgres provides PostgreSQL implementation of the inventory repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/stockroom/internal/domain"
	"github.com/bissquit/stockroom/internal/inventory"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the inventory.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateProduct creates a new product in the database.
func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, quantity, price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		product.Name,
		product.Quantity,
		product.Price,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// GetProductByID retrieves a product by its id.
func (r *Repository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, quantity, price, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	var product domain.Product
	err := r.db.QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Quantity,
		&product.Price,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return &product, nil
}

// ListProducts retrieves all products ordered by name.
func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, quantity, price, created_at, updated_at
		FROM products
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Quantity,
			&product.Price,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// UpdateProduct replaces a product's fields.
func (r *Repository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, quantity = $3, price = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		product.ID,
		product.Name,
		product.Quantity,
		product.Price,
	).Scan(&product.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.ErrProductNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// DeleteProduct removes a product by id.
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrProductNotFound
	}
	return nil
}

// RecordSale decrements the product's stock and inserts the sale in a
// single transaction. The conditional UPDATE makes the decrement safe
// under concurrent sales.
func (r *Repository) RecordSale(ctx context.Context, sale *domain.Sale) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2
	`, sale.ProductID, sale.Quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the product vanished or the stock no longer covers
		// the sale; look up which.
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, sale.ProductID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		if !exists {
			return inventory.ErrProductNotFound
		}
		return inventory.ErrInsufficientStock
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO sales (product_id, product_name, quantity, unit_price, total, sold_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, sold_at
	`,
		sale.ProductID,
		sale.ProductName,
		sale.Quantity,
		sale.UnitPrice,
		sale.Total,
		sale.SoldBy,
	).Scan(&sale.ID, &sale.SoldAt)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit sale: %w", err)
	}
	return nil
}

// ListSales retrieves all sales, newest first.
func (r *Repository) ListSales(ctx context.Context) ([]domain.Sale, error) {
	query := `
		SELECT id, product_id, product_name, quantity, unit_price, total, sold_by, sold_at
		FROM sales
		ORDER BY sold_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		var sale domain.Sale
		err := rows.Scan(
			&sale.ID,
			&sale.ProductID,
			&sale.ProductName,
			&sale.Quantity,
			&sale.UnitPrice,
			&sale.Total,
			&sale.SoldBy,
			&sale.SoldAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}
