package core

import (
	"math"
	"testing"
)

func TestPriceWorkedExample(t *testing.T) {
	// 240kg at 2/kg with fat 8.2 against ideal 8.0 and multiplier 1.2:
	// (240*2) * (0.2*1.2) = 480 * 0.24 = 115.20
	got := Price(240, 8.2, 2, 1.2, 8.0)
	if got != 115.20 {
		t.Fatalf("expected price 115.20, got %v", got)
	}
}

func TestPriceIsDeterministic(t *testing.T) {
	first := Price(123.45, 7.9, 3.5, 1.1, 8.0)
	for i := 0; i < 10; i++ {
		if got := Price(123.45, 7.9, 3.5, 1.1, 8.0); got != first {
			t.Fatalf("price not deterministic: %v vs %v", got, first)
		}
	}
}

func TestPriceFatDeltaIsAbsolute(t *testing.T) {
	above := Price(100, 8.5, 1, 1, 8.0)
	below := Price(100, 7.5, 1, 1, 8.0)
	if above != below {
		t.Fatalf("fat delta should be symmetric: %v vs %v", above, below)
	}
}

func TestPriceZeroFatDelta(t *testing.T) {
	if got := Price(100, 8.0, 2, 1.2, 8.0); got != 0 {
		t.Fatalf("expected zero price for perfect fat, got %v", got)
	}
}

func TestRoundCurrencyHalfAwayFromZero(t *testing.T) {
	// Tie values chosen to be exactly representable in binary so the test
	// exercises the rounding mode, not float encoding.
	cases := []struct {
		in   float64
		want float64
	}{
		{0.125, 0.13},
		{-0.125, -0.13},
		{0.375, 0.38},
		{-0.375, -0.38},
		{115.196, 115.20},
		{115.194, 115.19},
	}
	for _, tc := range cases {
		got := roundCurrency(tc.in)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("roundCurrency(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
