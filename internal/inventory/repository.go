package inventory

import (
	"context"

	"github.com/bissquit/stockroom/internal/domain"
)

// Repository defines the interface for inventory data operations.
type Repository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error

	// RecordSale decrements the product's stock and inserts the sale in
	// one transaction. Returns ErrInsufficientStock if the remaining
	// quantity does not cover the sale.
	RecordSale(ctx context.Context, sale *domain.Sale) error
	ListSales(ctx context.Context) ([]domain.Sale, error)
}
