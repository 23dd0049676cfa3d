package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPrice(t *testing.T) {
	cases := []struct {
		price    string
		creator  string
		platform string
	}{
		{"30", "27", "3"},
		{"20", "18", "2"},
		{"100", "90", "10"},
		{"1", "0.9", "0.1"},
		// 10% of 0.05 is 0.005; half-even at the cent keeps it at 0.00 and
		// the creator receives the whole price.
		{"0.05", "0.05", "0"},
		// 10% of 0.15 is 0.015, which rounds half-even up to 0.02.
		{"0.15", "0.13", "0.02"},
		{"123.45", "111.11", "12.34"},
	}

	for _, tc := range cases {
		price := decimal.RequireFromString(tc.price)
		creator, platform := SplitPrice(price)
		assert.True(t, creator.Equal(decimal.RequireFromString(tc.creator)),
			"price %s: expected creator share %s, got %s", tc.price, tc.creator, creator)
		assert.True(t, platform.Equal(decimal.RequireFromString(tc.platform)),
			"price %s: expected platform share %s, got %s", tc.price, tc.platform, platform)
	}
}

// The two shares must always reconcile to the full price, whatever the
// rounding does to the platform cut.
func TestSplitPrice_Reconciles(t *testing.T) {
	for _, p := range []string{"30", "20", "0.01", "0.05", "0.15", "1", "99.99", "123.45", "0.33", "1000000.07"} {
		price := decimal.RequireFromString(p)
		creator, platform := SplitPrice(price)
		require.True(t, creator.Add(platform).Equal(price),
			"price %s: %s + %s != %s", p, creator, platform, price)
		require.False(t, creator.IsNegative(), "price %s: negative creator share", p)
		require.False(t, platform.IsNegative(), "price %s: negative platform share", p)
	}
}

func TestSplitPrice_NonPositive(t *testing.T) {
	creator, platform := SplitPrice(decimal.Zero)
	assert.True(t, creator.IsZero())
	assert.True(t, platform.IsZero())

	creator, platform = SplitPrice(decimal.NewFromInt(-5))
	assert.True(t, creator.IsZero())
	assert.True(t, platform.IsZero())
}

func TestParsePrice_MalformedIsZero(t *testing.T) {
	for _, price := range []string{"", "free", "12.3.4", "  "} {
		art := &Artwork{ID: "a1", Price: price}
		assert.True(t, art.ParsePrice().IsZero(), "price %q should parse to zero", price)
	}
	art := &Artwork{ID: "a1", Price: " 42.50 "}
	assert.True(t, art.ParsePrice().Equal(decimal.RequireFromString("42.5")))
}
