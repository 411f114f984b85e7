package product

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// catalogRecord mirrors the JSON layout of catalog files.
type catalogRecord struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	ImageRef      string           `json:"imageRef"`
	Category      string           `json:"category"`
	Colors        []string         `json:"colors,omitempty"`
	Sizes         []string         `json:"sizes,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	Rating        float64          `json:"rating"`
	Reviews       int              `json:"reviews"`
}

// DecodeCatalog parses a JSON catalog file into products. Records without an
// ID, name, or positive price are rejected.
func DecodeCatalog(data []byte) ([]Product, error) {
	var records []catalogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}

	products := make([]Product, 0, len(records))
	for i, rec := range records {
		switch {
		case rec.ID == "":
			return nil, errors.Errorf("catalog record %d: missing id", i)
		case rec.Name == "":
			return nil, errors.Errorf("catalog record %q: missing name", rec.ID)
		case !rec.Price.IsPositive():
			return nil, errors.Errorf("catalog record %q: price must be positive", rec.ID)
		}
		products = append(products, Product{
			ID:            rec.ID,
			Name:          rec.Name,
			Description:   rec.Description,
			Price:         rec.Price,
			OriginalPrice: rec.OriginalPrice,
			ImageRef:      rec.ImageRef,
			Category:      rec.Category,
			Colors:        rec.Colors,
			Sizes:         rec.Sizes,
			Tags:          rec.Tags,
			Rating:        rec.Rating,
			Reviews:       rec.Reviews,
		})
	}
	return products, nil
}
