package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kokoro-shop/storefront/internal/domain/cart"
	"github.com/kokoro-shop/storefront/internal/domain/pricing"
)

// lineItemResponse is the wire shape of one cart line.
type lineItemResponse struct {
	ProductID     string   `json:"productId"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	UnitPrice     float64  `json:"unitPrice"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	ImageRef      string   `json:"imageRef"`
	Category      string   `json:"category"`
	Quantity      int      `json:"quantity"`
	VariantColor  string   `json:"variantColor,omitempty"`
	VariantSize   string   `json:"variantSize,omitempty"`
}

// quoteResponse is the derived pricing breakdown.
type quoteResponse struct {
	Subtotal       float64 `json:"subtotal"`
	OriginalTotal  float64 `json:"originalTotal"`
	Savings        float64 `json:"savings"`
	PromoDiscount  float64 `json:"promoDiscount"`
	ShippingFee    float64 `json:"shippingFee"`
	Total          float64 `json:"total"`
	TotalItemCount int     `json:"totalItemCount"`
	AppliedPromo   string  `json:"appliedPromo,omitempty"`
}

// cartResponse is the full cart view: lines plus quote.
type cartResponse struct {
	Items []lineItemResponse `json:"items"`
	Quote quoteResponse      `json:"quote"`
}

func toLineItemResponse(li cart.LineItem) lineItemResponse {
	resp := lineItemResponse{
		ProductID:    li.ProductID,
		Name:         li.Name,
		Description:  li.Description,
		UnitPrice:    li.UnitPrice.InexactFloat64(),
		ImageRef:     li.ImageRef,
		Category:     li.Category,
		Quantity:     li.Quantity,
		VariantColor: li.VariantColor,
		VariantSize:  li.VariantSize,
	}
	if li.OriginalPrice != nil {
		v := li.OriginalPrice.InexactFloat64()
		resp.OriginalPrice = &v
	}
	return resp
}

func toQuoteResponse(q pricing.Quote) quoteResponse {
	return quoteResponse{
		Subtotal:       q.Subtotal.InexactFloat64(),
		OriginalTotal:  q.OriginalTotal.InexactFloat64(),
		Savings:        q.Savings.InexactFloat64(),
		PromoDiscount:  q.PromoDiscount.InexactFloat64(),
		ShippingFee:    q.ShippingFee.InexactFloat64(),
		Total:          q.Total.InexactFloat64(),
		TotalItemCount: q.TotalItemCount,
		AppliedPromo:   q.AppliedPromo,
	}
}

// cartView renders a snapshot with its quote.
func (h *Handler) cartView(snap cart.Snapshot) cartResponse {
	items := make([]lineItemResponse, len(snap.Items))
	for i, li := range snap.Items {
		items[i] = toLineItemResponse(li)
	}
	return cartResponse{
		Items: items,
		Quote: toQuoteResponse(pricing.Calculate(snap.Items, snap.AppliedPromo, h.promos, h.pricing)),
	}
}

// productPayload is the typed descriptor a view supplies when adding to the
// cart. Prices accept JSON numbers or strings.
type productPayload struct {
	ProductID     string           `json:"productId"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	UnitPrice     decimal.Decimal  `json:"unitPrice"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	ImageRef      string           `json:"imageRef"`
	Category      string           `json:"category"`
	VariantColor  string           `json:"variantColor"`
	VariantSize   string           `json:"variantSize"`
}

func (p productPayload) details() cart.Details {
	return cart.Details{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Description:   p.Description,
		UnitPrice:     p.UnitPrice,
		OriginalPrice: p.OriginalPrice,
		ImageRef:      p.ImageRef,
		Category:      p.Category,
		VariantColor:  p.VariantColor,
		VariantSize:   p.VariantSize,
	}
}

type addItemRequest struct {
	Product  productPayload `json:"product"`
	Quantity int            `json:"quantity"`
}

type updateQuantityRequest struct {
	ProductID    string `json:"productId"`
	Quantity     int    `json:"quantity"`
	VariantColor string `json:"variantColor"`
	VariantSize  string `json:"variantSize"`
}

type applyPromoRequest struct {
	Code string `json:"code"`
}

type applyPromoResponse struct {
	Applied bool         `json:"applied"`
	Cart    cartResponse `json:"cart"`
}

type cartCountResponse struct {
	Count int `json:"count"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	snap := h.carts.Get(r.Context(), h.cartID(w, r))
	respondJSON(w, r, http.StatusOK, h.cartView(snap))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	snap, err := h.carts.AddItem(r.Context(), h.cartID(w, r), req.Product.details(), req.Quantity)
	if err != nil {
		var ipErr *cart.InvalidProductError
		if errors.As(err, &ipErr) {
			respondError(w, r, http.StatusUnprocessableEntity, ipErr.Error())
			return
		}
		internalError(w, r, errors.Wrap(err, "add item"))
		return
	}
	h.metrics.record(r.Context(), "add")
	respondJSON(w, r, http.StatusOK, h.cartView(snap))
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ProductID == "" {
		respondError(w, r, http.StatusUnprocessableEntity, "productId required")
		return
	}

	key := cart.Key{
		ProductID:    req.ProductID,
		VariantColor: req.VariantColor,
		VariantSize:  req.VariantSize,
	}
	snap := h.carts.UpdateQuantity(r.Context(), h.cartID(w, r), key, req.Quantity)
	h.metrics.record(r.Context(), "update")
	respondJSON(w, r, http.StatusOK, h.cartView(snap))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	productID := query.Get("productId")
	if productID == "" {
		respondError(w, r, http.StatusUnprocessableEntity, "productId required")
		return
	}

	key := cart.Key{
		ProductID:    productID,
		VariantColor: query.Get("variantColor"),
		VariantSize:  query.Get("variantSize"),
	}
	snap := h.carts.RemoveItem(r.Context(), h.cartID(w, r), key)
	h.metrics.record(r.Context(), "remove")
	respondJSON(w, r, http.StatusOK, h.cartView(snap))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	snap := h.carts.Clear(r.Context(), h.cartID(w, r))
	h.metrics.record(r.Context(), "clear")
	respondJSON(w, r, http.StatusOK, h.cartView(snap))
}

func (h *Handler) cartCount(w http.ResponseWriter, r *http.Request) {
	count := h.carts.ItemCount(r.Context(), h.cartID(w, r))
	respondJSON(w, r, http.StatusOK, cartCountResponse{Count: count})
}

// applyPromo records the code on the cart and reports whether it matched a
// known entry. An unknown code is not an error; the view decides what
// feedback to show.
func (h *Handler) applyPromo(w http.ResponseWriter, r *http.Request) {
	var req applyPromoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Code == "" {
		respondError(w, r, http.StatusUnprocessableEntity, "code required")
		return
	}

	snap := h.carts.ApplyPromo(r.Context(), h.cartID(w, r), req.Code)
	h.metrics.record(r.Context(), "apply_promo")
	_, applied := h.promos.Fraction(req.Code)
	respondJSON(w, r, http.StatusOK, applyPromoResponse{
		Applied: applied,
		Cart:    h.cartView(snap),
	})
}

func (h *Handler) clearPromo(w http.ResponseWriter, r *http.Request) {
	snap := h.carts.ClearPromo(r.Context(), h.cartID(w, r))
	respondJSON(w, r, http.StatusOK, h.cartView(snap))
}
