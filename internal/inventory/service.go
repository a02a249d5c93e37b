// Package inventory provides HTTP handlers and business logic for
// products and sales.
package inventory

import (
	"context"

	"github.com/bissquit/stockroom/internal/domain"
	"github.com/google/uuid"
)

// Service implements inventory business logic.
type Service struct {
	repo Repository
}

// NewService creates a new inventory service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ProductInput is the input for creating or updating a product.
type ProductInput struct {
	Name     string
	Quantity int
	Price    float64
}

// CreateProduct creates a new product.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product := &domain.Product{
		Name:     input.Name,
		Quantity: input.Quantity,
		Price:    input.Price,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// ListProducts returns all products.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

// UpdateProduct replaces a product's fields.
func (s *Service) UpdateProduct(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	if err := validateProductID(id); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Quantity = input.Quantity
	product.Price = input.Price

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := validateProductID(id); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, id)
}

// SellInput is the input for selling a product.
type SellInput struct {
	ProductID string
	Quantity  int
}

// Sell records a sale, pricing it at the product's current price. The
// stock decrement and the sale insert happen atomically in the
// repository; a concurrent sale that drains the stock first surfaces
// as ErrInsufficientStock.
func (s *Service) Sell(ctx context.Context, input SellInput, soldBy string) (*domain.Sale, error) {
	if err := validateProductID(input.ProductID); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProductByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Quantity < input.Quantity {
		return nil, ErrInsufficientStock
	}

	sale := &domain.Sale{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    input.Quantity,
		UnitPrice:   product.Price,
		Total:       product.Price * float64(input.Quantity),
		SoldBy:      soldBy,
	}
	if err := s.repo.RecordSale(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// ListSales returns all recorded sales.
func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

func validateProductID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidProductID
	}
	return nil
}
