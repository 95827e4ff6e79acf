package utils

import (
	"math"
	"strconv"
	"strings"
)

// UnparsedPrice is assigned to prices that cannot be read. It is larger than
// any realistic flyer price, so such rows sort to the bottom.
const UnparsedPrice = 999.9

// ParseFlyerPrice reads the number out of a flyer price such as "je 1,99" or
// "ab 2,49 €". The number is the second space-separated token and uses a
// comma as decimal separator. ok is false when no number could be read.
func ParseFlyerPrice(priceStr string) (price float64, ok bool) {
	parts := strings.Split(strings.TrimSpace(priceStr), " ")
	if len(parts) < 2 {
		return UnparsedPrice, false
	}

	cleaned := strings.ReplaceAll(parts[1], ",", ".")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return UnparsedPrice, false
	}
	return price, true
}

// SplitOnce returns the part of s before the first sep, or s itself.
func SplitOnce(s, sep string) string {
	before, _, _ := strings.Cut(s, sep)
	return before
}
