package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAmount(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		quantity int
		want     []string
	}{
		{"even split", "100.00", 4, []string{"25.00", "25.00", "25.00", "25.00"}},
		{"remainder to first", "100.00", 3, []string{"33.34", "33.33", "33.33"}},
		{"negative remainder to first", "100.00", 6, []string{"16.65", "16.67", "16.67", "16.67", "16.67", "16.67"}},
		{"single participant", "70.00", 1, []string{"70.00"}},
		{"sub-cent amount", "0.01", 2, []string{"0.00", "0.01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tc.amount)
			prices := SplitAmount(amount, tc.quantity)
			require.Len(t, prices, tc.quantity)

			sum := decimal.Zero
			for i, p := range prices {
				assert.True(t, p.Equal(decimal.RequireFromString(tc.want[i])),
					"price %d: got %s want %s", i, p, tc.want[i])
				sum = sum.Add(p)
			}
			assert.True(t, sum.Equal(amount), "prices sum to %s, charged %s", sum, amount)
		})
	}
}
