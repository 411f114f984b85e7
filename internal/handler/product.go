package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/kokoro-shop/storefront/internal/domain/product"
)

// productResponse is the catalog item wire shape. Money is rendered as JSON
// numbers for the view layer.
type productResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	ImageRef      string   `json:"imageRef"`
	Category      string   `json:"category"`
	Colors        []string `json:"colors,omitempty"`
	Sizes         []string `json:"sizes,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Rating        float64  `json:"rating"`
	Reviews       int      `json:"reviews"`
}

func toProductResponse(p product.Product) productResponse {
	resp := productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		ImageRef:    p.ImageRef,
		Category:    p.Category,
		Colors:      p.Colors,
		Sizes:       p.Sizes,
		Tags:        p.Tags,
		Rating:      p.Rating,
		Reviews:     p.Reviews,
	}
	if p.OriginalPrice != nil {
		v := p.OriginalPrice.InexactFloat64()
		resp.OriginalPrice = &v
	}
	return resp
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var (
		items []product.Product
		err   error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		items, err = h.products.ListByCategory(r.Context(), category)
	} else {
		items, err = h.products.List(r.Context())
	}
	if err != nil {
		internalError(w, r, errors.Wrap(err, "list products"))
		return
	}

	resp := make([]productResponse, len(items))
	for i, p := range items {
		resp[i] = toProductResponse(p)
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, errors.Wrapf(err, "get product %s", id))
		return
	}
	respondJSON(w, r, http.StatusOK, toProductResponse(*p))
}
