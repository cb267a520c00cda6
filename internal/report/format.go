package report

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatUnits renders a scaled integer amount as a decimal string with
// trailing zeros trimmed from the fraction.
func FormatUnits(value *big.Int, decimals uint8) string {
	sign := ""
	abs := new(big.Int).Set(value)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}
	if decimals == 0 {
		return sign + abs.String()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, fraction := new(big.Int).QuoRem(abs, divisor, new(big.Int))
	if fraction.Sign() == 0 {
		return sign + whole.String()
	}

	fracText := fraction.String()
	if pad := int(decimals) - len(fracText); pad > 0 {
		fracText = strings.Repeat("0", pad) + fracText
	}
	fracText = strings.TrimRight(fracText, "0")
	return sign + whole.String() + "." + fracText
}

// FormatUnitsDisplay renders an amount with the fraction capped at a
// readable number of digits for the token's precision.
func FormatUnitsDisplay(value *big.Int, decimals uint8) string {
	maxFrac := 6
	if decimals >= 18 || decimals == 8 {
		maxFrac = 8
	}

	text := FormatUnits(value, decimals)
	dot := strings.IndexByte(text, '.')
	if dot < 0 {
		return text
	}
	frac := text[dot+1:]
	if len(frac) <= maxFrac {
		return text
	}
	return strings.TrimRight(text[:dot+1+maxFrac], ".")
}

// FormatBps renders basis points as a percentage with two decimals.
func FormatBps(bps int64) string {
	sign := ""
	if bps < 0 {
		sign = "-"
		bps = -bps
	}
	return fmt.Sprintf("%s%d.%02d%%", sign, bps/100, bps%100)
}
