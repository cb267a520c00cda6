package report

import (
	"math/big"
	"testing"
)

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		value    int64
		decimals uint8
		want     string
	}{
		{0, 6, "0"},
		{1_000_000, 6, "1"},
		{1_500_000, 6, "1.5"},
		{-2_345_000, 6, "-2.345"},
		{42, 0, "42"},
		{1, 6, "0.000001"},
		{10_000_001, 6, "10.000001"},
	}

	for _, c := range cases {
		got := FormatUnits(big.NewInt(c.value), c.decimals)
		if got != c.want {
			t.Fatalf("FormatUnits(%d, %d) = %q, want %q", c.value, c.decimals, got, c.want)
		}
	}
}

func TestFormatUnitsDisplayCapsFraction(t *testing.T) {
	// 18 decimals allow 8 fraction digits.
	value := new(big.Int)
	value.SetString("1123456789123456789", 10)
	if got := FormatUnitsDisplay(value, 18); got != "1.12345678" {
		t.Fatalf("unexpected display: %q", got)
	}

	// 6 decimals keep the full fraction.
	if got := FormatUnitsDisplay(big.NewInt(1_123_456), 6); got != "1.123456" {
		t.Fatalf("unexpected display: %q", got)
	}
}

func TestFormatBps(t *testing.T) {
	cases := map[int64]string{
		1000:  "10.00%",
		1234:  "12.34%",
		5:     "0.05%",
		-250:  "-2.50%",
		10000: "100.00%",
	}
	for bps, want := range cases {
		if got := FormatBps(bps); got != want {
			t.Fatalf("FormatBps(%d) = %q, want %q", bps, got, want)
		}
	}
}

func TestPercentBps(t *testing.T) {
	if got := percentBps(big.NewInt(200), big.NewInt(1000)); got != 2000 {
		t.Fatalf("expected 2000 bps, got %d", got)
	}
	if got := percentBps(big.NewInt(100), big.NewInt(0)); got != 0 {
		t.Fatalf("expected 0 for zero base, got %d", got)
	}
}
