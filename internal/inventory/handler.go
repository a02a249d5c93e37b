package inventory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bissquit/stockroom/internal/domain"
	"github.com/bissquit/stockroom/internal/pkg/ctxlog"
	"github.com/bissquit/stockroom/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the inventory module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new inventory handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers inventory routes behind the auth middleware,
// each gated by its action from the policy table.
func (h *Handler) RegisterRoutes(r chi.Router, gate httputil.Gate) {
	r.With(gate(domain.ActionViewProducts)).Get("/products", h.ListProducts)
	r.With(gate(domain.ActionAddProduct)).Post("/products", h.CreateProduct)
	r.With(gate(domain.ActionUpdateProduct)).Put("/products/{id}", h.UpdateProduct)
	r.With(gate(domain.ActionDeleteProduct)).Delete("/products/{id}", h.DeleteProduct)

	r.With(gate(domain.ActionViewSales)).Get("/sales", h.ListSales)
	r.With(gate(domain.ActionSellProduct)).Post("/sales", h.Sell)
}

// ProductRequest represents the request body for creating or updating
// a product.
type ProductRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=255"`
	Quantity int     `json:"quantity" validate:"gte=0"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// CreateProduct handles POST /products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), ProductInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, product)
}

// ListProducts handles GET /products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, products)
}

// UpdateProduct handles PUT /products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), ProductInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SellRequest represents the request body for selling a product.
type SellRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// Sell handles POST /sales. The seller identity comes from the
// verified token, not the request body.
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	var req SellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	sale, err := h.service.Sell(r.Context(), SellInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}, httputil.GetUserID(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, sale)
}

// ListSales handles GET /sales.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.ListSales(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, sales)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidProductID):
		httputil.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrProductNotFound):
		httputil.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientStock):
		httputil.Error(w, http.StatusConflict, err.Error())
	default:
		ctxlog.FromContext(r.Context()).Error("internal error", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal error")
	}
}
