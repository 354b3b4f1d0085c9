// Package amount converts token quantities between human-readable decimal
// strings and atomic integer strings (the token's smallest unit). All
// arithmetic is exact big.Int / digit-string work; values never pass through
// floating point.
package amount

import (
	"math/big"
	"strings"
)

// maxDisplayDecimals caps the fractional digits shown to users. Display
// truncation beyond this point is lossy and intentional.
const maxDisplayDecimals = 6

// ToAtomic converts a decimal amount string to an atomic integer string for a
// token with the given decimal precision. Excess fractional digits are
// truncated, not rounded; the precision loss is intentional. Empty, zero and
// malformed input all yield "0".
func ToAtomic(amount string, decimals uint8) string {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return "0"
	}

	intPart, fracPart, _ := strings.Cut(amount, ".")
	if !digitsOnly(intPart) || !digitsOnly(fracPart) {
		return "0"
	}

	if len(fracPart) < int(decimals) {
		fracPart += strings.Repeat("0", int(decimals)-len(fracPart))
	} else {
		fracPart = fracPart[:decimals]
	}

	full := strings.TrimLeft(intPart+fracPart, "0")
	if full == "" {
		return "0"
	}
	return full
}

// ToDecimal converts an atomic integer string back to a decimal string using
// exact integer division by 10^decimals. The fractional part is shown with at
// most six digits, trailing zeros stripped. Empty, "0" and malformed input
// all yield "0"; the function never fails.
func ToDecimal(amount string, decimals uint8) string {
	if amount == "" || amount == "0" {
		return "0"
	}

	value, ok := new(big.Int).SetString(amount, 10)
	if !ok || value.Sign() < 0 {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, remainder := new(big.Int).QuoRem(value, divisor, new(big.Int))

	frac := remainder.String()
	if len(frac) < int(decimals) {
		frac = strings.Repeat("0", int(decimals)-len(frac)) + frac
	}
	if len(frac) > maxDisplayDecimals {
		frac = frac[:maxDisplayDecimals]
	}
	frac = strings.TrimRight(frac, "0")

	if frac == "" {
		return whole.String()
	}
	return whole.String() + "." + frac
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
