package pricing

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// BulkDiscountPercent is taken off any pack larger than the reference size.
const BulkDiscountPercent = 10

// ErrNegativePrice is returned when a quote is asked for a negative base price.
var ErrNegativePrice = errors.New("negative base price")

var hundred = decimal.NewFromInt(100)

// ComputePrice scales basePrice, quoted for baseSize, to requestedSize.
// Packs larger than baseSize get BulkDiscountPercent off. The result is rounded
// half-up to a whole currency unit.
func ComputePrice(basePrice int64, baseSize, requestedSize string) (int64, error) {
	if basePrice < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativePrice, basePrice)
	}

	base, err := ParseSize(baseSize)
	if err != nil {
		return 0, err
	}
	req, err := ParseSize(requestedSize)
	if err != nil {
		return 0, err
	}
	if base.Dim != req.Dim {
		return 0, &UnparseableSizeError{
			Label:  requestedSize,
			Reason: fmt.Sprintf("%s size cannot be priced against %s base %q", req.Dim, base.Dim, baseSize),
		}
	}

	// price * req / base, with the discount folded in before the single division
	num := decimal.NewFromInt(basePrice).Mul(req.Quantity)
	den := base.Quantity
	if req.Quantity.GreaterThan(base.Quantity) {
		num = num.Mul(decimal.NewFromInt(100 - BulkDiscountPercent))
		den = den.Mul(hundred)
	}

	return num.Div(den).Round(0).IntPart(), nil
}

// QuoteOrBase is ComputePrice for display paths: labels that cannot be parsed
// fall back to basePrice.
func QuoteOrBase(l *slog.Logger, basePrice int64, baseSize, requestedSize string) int64 {
	price, err := ComputePrice(basePrice, baseSize, requestedSize)
	if err != nil {
		if l != nil {
			l.Warn("price_quote_fallback", "base_size", baseSize, "requested_size", requestedSize, "error", err)
		}
		return basePrice
	}
	return price
}

// PackPrice is the quoted price of one pack size.
type PackPrice struct {
	Size  string `json:"size"`
	Price int64  `json:"price"`
}

// PackPrices quotes every pack size against the first one, which is the size
// basePrice refers to.
func PackPrices(l *slog.Logger, basePrice int64, sizes []string) []PackPrice {
	if len(sizes) == 0 {
		return nil
	}
	out := make([]PackPrice, 0, len(sizes))
	for _, s := range sizes {
		out = append(out, PackPrice{Size: s, Price: QuoteOrBase(l, basePrice, sizes[0], s)})
	}
	return out
}
