package domain

import "time"

// Product represents a stock item.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sale records a completed sale of a product. UnitPrice is the product
// price at the time of sale; Total is UnitPrice * Quantity.
type Sale struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Total       float64   `json:"total"`
	SoldBy      string    `json:"sold_by"`
	SoldAt      time.Time `json:"sold_at"`
}
