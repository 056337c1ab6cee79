package pricing

import (
	"errors"
	"testing"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		label string
		dim   Dimension
		qty   string
	}{
		{"grams", "100g", Mass, "100"},
		{"grams with space and case", " 250 GM ", Mass, "250"},
		{"kilograms", "1kg", Mass, "1000"},
		{"fractional kilograms", "0.5 kgs", Mass, "500"},
		{"milligrams", "500mg", Mass, "0.5"},
		{"litres", "1 Litre", Volume, "1000"},
		{"millilitres", "200ml", Volume, "200"},
		{"pieces", "12 pcs", Count, "12"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := ParseSize(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.dim, s.Dim)
			assert.True(t, s.Quantity.Equal(decimal.RequireFromString(tt.qty)), "got %s", s.Quantity)
		})
	}
}

func TestParseSize_Rejects(t *testing.T) {
	t.Parallel()

	for _, label := range []string{"", "large", "100", "g", "0g", "100oz", "1,5kg", "-5g"} {
		label := label
		t.Run(label, func(t *testing.T) {
			t.Parallel()

			_, err := ParseSize(label)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnparseableSize))

			var ue *UnparseableSizeError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, label, ue.Label)
		})
	}
}

func TestComputePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		basePrice int64
		baseSize  string
		requested string
		want      int64
	}{
		{"same size", 60, "100g", "100g", 60},
		{"ten times larger gets discount", 60, "100g", "1kg", 540},
		{"smaller pack no discount", 60, "100g", "50g", 30},
		{"two and a half times", 120, "100g", "250g", 270},
		{"rounds half up on discount", 45, "100g", "150g", 61},
		{"rounds half up without discount", 5, "100g", "50g", 3},
		{"fractional base", 99, "100g", "1.5kg", 1337},
		{"volume", 80, "1 L", "500ml", 40},
		{"count", 10, "6 pcs", "12 pieces", 18},
		{"zero price", 0, "100g", "1kg", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ComputePrice(tt.basePrice, tt.baseSize, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputePrice_Errors(t *testing.T) {
	t.Parallel()

	_, err := ComputePrice(60, "family pack", "1kg")
	assert.ErrorIs(t, err, ErrUnparseableSize)

	_, err = ComputePrice(60, "100g", "jumbo")
	assert.ErrorIs(t, err, ErrUnparseableSize)

	_, err = ComputePrice(60, "100g", "1l")
	assert.ErrorIs(t, err, ErrUnparseableSize)

	_, err = ComputePrice(-1, "100g", "1kg")
	assert.ErrorIs(t, err, ErrNegativePrice)
}

func TestComputePrice_Deterministic(t *testing.T) {
	t.Parallel()

	first, err := ComputePrice(180, "100g", "750g")
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		got, err := ComputePrice(180, "100g", "750g")
		require.NoError(t, err)
		require.Equal(t, first, got)
	}
}

func TestQuoteOrBase(t *testing.T) {
	t.Parallel()

	l := logging.Discard()
	assert.Equal(t, int64(540), QuoteOrBase(l, 60, "100g", "1kg"))
	assert.Equal(t, int64(60), QuoteOrBase(l, 60, "100g", "a big box"))
	assert.Equal(t, int64(60), QuoteOrBase(nil, 60, "bag", "1kg"))
}

func TestPackPrices(t *testing.T) {
	t.Parallel()

	got := PackPrices(logging.Discard(), 120, []string{"100g", "250g", "1kg", "tin"})
	assert.Equal(t, []PackPrice{
		{Size: "100g", Price: 120},
		{Size: "250g", Price: 270},
		{Size: "1kg", Price: 1080},
		{Size: "tin", Price: 120},
	}, got)

	assert.Nil(t, PackPrices(logging.Discard(), 120, nil))
}
