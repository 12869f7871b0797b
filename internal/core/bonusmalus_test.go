package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCoefficient(t *testing.T, s string) Coefficient {
	t.Helper()
	c, err := NewCoefficient(decimal.RequireFromString(s))
	require.NoError(t, err)
	return c
}

func TestCalculateNewCoefficient_NoClaims(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"1.00", "0.95"},
		{"2.00", "1.90"},
		{"0.55", "0.52"},
		{"0.52", "0.50"}, // 0.494 floors at 0.50
		{"0.50", "0.50"}, // floor holds at the boundary
		{"3.50", "3.33"},
	}
	for _, tt := range tests {
		got, err := CalculateNewCoefficient(mustCoefficient(t, tt.current), 0)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.String(), "current=%s", tt.current)
	}
}

func TestCalculateNewCoefficient_WithClaims(t *testing.T) {
	tests := []struct {
		current string
		claims  int
		want    string
	}{
		{"1.00", 1, "1.25"},
		{"1.00", 2, "1.56"}, // compounding: 1.25 then 1.5625 -> 1.56
		{"1.00", 3, "1.95"},
		{"2.00", 2, "3.13"}, // 2.50 then 3.125 -> 3.13
		{"3.00", 1, "3.50"}, // 3.75 capped
		{"3.50", 1, "3.50"}, // cap holds at the boundary
		{"3.50", 5, "3.50"},
	}
	for _, tt := range tests {
		got, err := CalculateNewCoefficient(mustCoefficient(t, tt.current), tt.claims)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.String(), "current=%s claims=%d", tt.current, tt.claims)
	}
}

func TestCalculateNewCoefficient_NegativeClaimsRejected(t *testing.T) {
	_, err := CalculateNewCoefficient(mustCoefficient(t, "1.00"), -1)
	require.ErrorIs(t, err, ErrValidation)
}

// A claim-free period never increases the coefficient and the floor always
// holds, for any in-range starting point.
func TestCalculateNewCoefficient_ReductionProperties(t *testing.T) {
	step := decimal.RequireFromString("0.05")
	for c := CoefficientMin; !c.GreaterThan(CoefficientMax); c = c.Add(step) {
		current := ClampCoefficient(c)
		got, err := CalculateNewCoefficient(current, 0)
		require.NoError(t, err)
		assert.True(t, !got.Decimal().GreaterThan(current.Decimal()),
			"reduction increased coefficient at %s", current)
		assert.True(t, !got.Decimal().LessThan(CoefficientMin),
			"reduction broke the floor at %s", current)
	}
}

// The surcharged coefficient is non-decreasing in the claim count and
// never exceeds the cap.
func TestCalculateNewCoefficient_SurchargeProperties(t *testing.T) {
	start := mustCoefficient(t, "1.00")
	prev := start.Decimal()
	for n := 1; n <= 12; n++ {
		got, err := CalculateNewCoefficient(start, n)
		require.NoError(t, err)
		assert.True(t, !got.Decimal().LessThan(prev), "decreased at n=%d", n)
		assert.True(t, !got.Decimal().GreaterThan(CoefficientMax), "broke the cap at n=%d", n)
		prev = got.Decimal()
	}
}
