// Package pricing derives every money figure shown at checkout from the
// current cart lines and an optional applied promo code. Calculate is pure:
// same inputs, same outputs, no side effects.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kokoro-shop/storefront/internal/domain/cart"
	"github.com/kokoro-shop/storefront/internal/domain/promo"
)

// Config holds the shipping constants. The flat fee applies only to
// non-empty carts whose subtotal is below the free-shipping threshold.
type Config struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// Quote is the derived pricing breakdown for one cart.
type Quote struct {
	Subtotal       decimal.Decimal
	OriginalTotal  decimal.Decimal
	Savings        decimal.Decimal
	PromoDiscount  decimal.Decimal
	ShippingFee    decimal.Decimal
	Total          decimal.Decimal
	TotalItemCount int

	// AppliedPromo is the normalized code when it matched the table,
	// empty otherwise. The view layer decides how to surface an
	// unmatched code; pricing just yields zero discount for it.
	AppliedPromo string
}

// Calculate computes the quote for the given lines and applied code. Each
// output depends on the prior ones, in the order the fields are assigned.
// Malformed lines (negative price or quantity) are prevented upstream by the
// cart store and are not handled here.
func Calculate(items []cart.LineItem, appliedCode string, table *promo.Table, cfg Config) Quote {
	var q Quote

	for i := range items {
		qty := decimal.NewFromInt(int64(items[i].Quantity))
		q.Subtotal = q.Subtotal.Add(items[i].UnitPrice.Mul(qty))

		original := items[i].UnitPrice
		if items[i].OriginalPrice != nil {
			original = *items[i].OriginalPrice
		}
		q.OriginalTotal = q.OriginalTotal.Add(original.Mul(qty))

		q.TotalItemCount += items[i].Quantity
	}

	q.Savings = q.OriginalTotal.Sub(q.Subtotal)

	q.PromoDiscount = decimal.Zero
	if len(items) > 0 && appliedCode != "" {
		if fraction, ok := table.Fraction(appliedCode); ok {
			q.PromoDiscount = q.Subtotal.Mul(fraction).Round(2)
			q.AppliedPromo = strings.ToUpper(appliedCode)
		}
	}

	// An empty cart ships nothing: guard on the item list explicitly
	// rather than relying on the subtotal range check alone.
	q.ShippingFee = decimal.Zero
	if len(items) > 0 && q.Subtotal.IsPositive() && q.Subtotal.LessThan(cfg.FreeShippingThreshold) {
		q.ShippingFee = cfg.ShippingFee
	}

	q.Total = q.Subtotal.Sub(q.PromoDiscount).Add(q.ShippingFee).Round(2)
	// The discount is a fraction of the subtotal, so the total cannot
	// legitimately go negative. Clamp anyway as a sanity guard.
	if q.Total.IsNegative() {
		q.Total = decimal.Zero
	}

	return q
}
