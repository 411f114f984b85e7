// Package promo maps promo codes to discount fractions. The code set is
// static configuration, not user data: a small table of named codes from the
// app config, optionally extended by large bulk code sets held in a Bloom
// filter (see bulk.go).
package promo

import (
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Table resolves a promo code to its discount fraction. Lookup is
// case-insensitive. An unknown code is not an error; it simply yields no
// discount.
type Table struct {
	rules map[string]decimal.Decimal

	// bulk grants bulkFraction to every code in the ingested bulk sets.
	// Static rules win over the bulk set for the same code.
	bulk         *bloom.BloomFilter
	bulkFraction decimal.Decimal
}

// NewTable builds a Table from code -> fraction pairs. Codes are normalized
// to upper case; fractions must lie in [0, 1].
func NewTable(rules map[string]decimal.Decimal) (*Table, error) {
	normalized := make(map[string]decimal.Decimal, len(rules))
	for code, fraction := range rules {
		if code == "" {
			return nil, errors.New("empty promo code")
		}
		if fraction.IsNegative() || fraction.GreaterThan(one) {
			return nil, errors.Errorf("promo code %s: fraction %s out of [0, 1]", code, fraction)
		}
		normalized[strings.ToUpper(code)] = fraction
	}
	return &Table{rules: normalized}, nil
}

// SetBulkSet attaches a Bloom filter of bulk codes, each worth fraction.
// The filter's false-positive rate is an accepted trade: a vanishingly small
// share of unknown codes may receive the bulk discount.
func (t *Table) SetBulkSet(filter *bloom.BloomFilter, fraction decimal.Decimal) error {
	if fraction.IsNegative() || fraction.GreaterThan(one) {
		return errors.Errorf("bulk fraction %s out of [0, 1]", fraction)
	}
	t.bulk = filter
	t.bulkFraction = fraction
	return nil
}

// Fraction returns the discount fraction for code and whether it matched.
func (t *Table) Fraction(code string) (decimal.Decimal, bool) {
	if code == "" {
		return decimal.Zero, false
	}
	upper := strings.ToUpper(code)
	if fraction, ok := t.rules[upper]; ok {
		return fraction, true
	}
	if t.bulk != nil && t.bulk.TestString(upper) {
		return t.bulkFraction, true
	}
	return decimal.Zero, false
}
