package inventory

import "errors"

// Expected failure modes of the inventory module.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidProductID  = errors.New("invalid product id")
	ErrInsufficientStock = errors.New("insufficient stock")
)
