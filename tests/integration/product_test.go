//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 8 {
		t.Fatalf("expected 8 products, got %d", len(products))
	}
}

func TestListProducts_ByCategory(t *testing.T) {
	resp := doGet(t, "/api/products?category=apparel")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) == 0 {
		t.Fatal("expected at least one apparel product")
	}
	for _, p := range products {
		if p.Category != "apparel" {
			t.Errorf("product %s: category %q, want apparel", p.ID, p.Category)
		}
	}
}

func TestListProducts_Fields(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)

	var hoodie *productResponse
	for i := range products {
		if products[i].ID == "1" {
			hoodie = &products[i]
			break
		}
	}

	if hoodie == nil {
		t.Fatal("product with ID '1' not found")
	}
	if hoodie.Name != "Cyberpunk Neon Hoodie" {
		t.Errorf("name: got %q, want %q", hoodie.Name, "Cyberpunk Neon Hoodie")
	}
	if hoodie.Price != 89 {
		t.Errorf("price: got %v, want 89", hoodie.Price)
	}
	if hoodie.OriginalPrice == nil || *hoodie.OriginalPrice != 129 {
		t.Errorf("originalPrice: got %v, want 129", hoodie.OriginalPrice)
	}
	if hoodie.Category != "apparel" {
		t.Errorf("category: got %q, want %q", hoodie.Category, "apparel")
	}
	if len(hoodie.Colors) == 0 {
		t.Error("colors is empty")
	}
	if len(hoodie.Sizes) == 0 {
		t.Error("sizes is empty")
	}
	if hoodie.ImageRef == "" {
		t.Error("imageRef is empty")
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/products/1")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	product := decodeJSON[productResponse](t, resp)
	if product.ID != "1" {
		t.Errorf("id: got %q, want %q", product.ID, "1")
	}
	if product.Name != "Cyberpunk Neon Hoodie" {
		t.Errorf("name: got %q, want %q", product.Name, "Cyberpunk Neon Hoodie")
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/999")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 404 {
		t.Errorf("error code: got %d, want 404", errResp.Code)
	}
}
