// Package handler exposes the storefront API over HTTP. Handlers own no
// business logic: they capture input, call the cart store or product
// repository, and render the pricing quote computed by the pricing package.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/kokoro-shop/storefront/internal/domain/cart"
	"github.com/kokoro-shop/storefront/internal/domain/pricing"
	"github.com/kokoro-shop/storefront/internal/domain/product"
	"github.com/kokoro-shop/storefront/internal/domain/promo"
)

const maxBodyBytes = 1 << 20

// Handler serves the storefront API.
type Handler struct {
	products product.Repository
	carts    *cart.Store
	promos   *promo.Table
	pricing  pricing.Config
	metrics  *metrics
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	carts *cart.Store,
	promos *promo.Table,
	pricingCfg pricing.Config,
	mp metric.MeterProvider,
) (*Handler, error) {
	m, err := newMetrics(mp)
	if err != nil {
		return nil, err
	}
	return &Handler{
		products: products,
		carts:    carts,
		promos:   promos,
		pricing:  pricingCfg,
		metrics:  m,
	}, nil
}

// Register attaches all API routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("GET /api/cart/count", h.cartCount)
	mux.HandleFunc("POST /api/cart/items", h.addItem)
	mux.HandleFunc("PATCH /api/cart/items", h.updateQuantity)
	mux.HandleFunc("DELETE /api/cart/items", h.removeItem)
	mux.HandleFunc("PUT /api/cart/promo", h.applyPromo)
	mux.HandleFunc("DELETE /api/cart/promo", h.clearPromo)
}

// errorResponse is the uniform error payload.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Error("Encoding response failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, errorResponse{Code: status, Message: message})
}

// decodeJSON reads and decodes the request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	respondError(w, r, http.StatusInternalServerError, "internal error")
}
