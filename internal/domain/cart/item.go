package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Key identifies a cart line. Two additions target the same line iff their
// keys are equal, including both variant fields being empty.
type Key struct {
	ProductID    string
	VariantColor string
	VariantSize  string
}

// LineItem is one purchasable unit held in the cart. Display fields are
// copied from the product at add time and never re-fetched. The JSON field
// names are the persisted slot layout and must stay stable across releases.
type LineItem struct {
	ProductID     string           `json:"productId"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	UnitPrice     decimal.Decimal  `json:"unitPrice"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	ImageRef      string           `json:"imageRef"`
	Category      string           `json:"category"`
	Quantity      int              `json:"quantity"`
	VariantColor  string           `json:"variantColor,omitempty"`
	VariantSize   string           `json:"variantSize,omitempty"`
}

// Key returns the identity triple for this line.
func (li LineItem) Key() Key {
	return Key{
		ProductID:    li.ProductID,
		VariantColor: li.VariantColor,
		VariantSize:  li.VariantSize,
	}
}

// Details is the typed product descriptor accepted by AddItem. It carries
// everything a LineItem holds except the quantity.
type Details struct {
	ProductID     string
	Name          string
	Description   string
	UnitPrice     decimal.Decimal
	OriginalPrice *decimal.Decimal
	ImageRef      string
	Category      string
	VariantColor  string
	VariantSize   string
}

// Key returns the identity triple an AddItem call with this descriptor
// would target.
func (d Details) Key() Key {
	return Key{
		ProductID:    d.ProductID,
		VariantColor: d.VariantColor,
		VariantSize:  d.VariantSize,
	}
}

// InvalidProductError indicates a product descriptor that failed boundary
// validation and was rejected before any cart mutation.
type InvalidProductError struct {
	Field  string
	Reason string
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid product: %s %s", e.Field, e.Reason)
}

// Validate checks the descriptor before it is allowed to touch cart state.
func (d Details) Validate() error {
	if d.ProductID == "" {
		return &InvalidProductError{Field: "productId", Reason: "must not be empty"}
	}
	if d.Name == "" {
		return &InvalidProductError{Field: "name", Reason: "must not be empty"}
	}
	if d.UnitPrice.IsNegative() {
		return &InvalidProductError{Field: "unitPrice", Reason: "must not be negative"}
	}
	if d.OriginalPrice != nil && d.OriginalPrice.IsNegative() {
		return &InvalidProductError{Field: "originalPrice", Reason: "must not be negative"}
	}
	return nil
}

// line builds a LineItem from the descriptor with the given quantity.
func (d Details) line(quantity int) LineItem {
	return LineItem{
		ProductID:     d.ProductID,
		Name:          d.Name,
		Description:   d.Description,
		UnitPrice:     d.UnitPrice,
		OriginalPrice: d.OriginalPrice,
		ImageRef:      d.ImageRef,
		Category:      d.Category,
		Quantity:      quantity,
		VariantColor:  d.VariantColor,
		VariantSize:   d.VariantSize,
	}
}
