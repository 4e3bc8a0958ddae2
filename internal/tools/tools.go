package tools

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds half away from zero on the decimal representation, so 2.675
// becomes 2.68 instead of the binary float's 2.67.
func Round(number float64, places int32) float64 {
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0
	}
	return decimal.NewFromFloat(number).Round(places).InexactFloat64()
}

// FormatFixed prints number with exactly places decimals.
func FormatFixed(number float64, places int32) string {
	if math.IsNaN(number) || math.IsInf(number, 0) {
		number = 0
	}
	return decimal.NewFromFloat(number).StringFixed(places)
}

// Rupees formats an amount as ₹1,234.50.
func Rupees(number float64) string {
	s := FormatFixed(math.Abs(number), 2)
	intPart, fracPart := s, ""
	for i := range s {
		if s[i] == '.' {
			intPart, fracPart = s[:i], s[i:]
			break
		}
	}

	grouped := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, intPart[i])
	}

	sign := ""
	if number < 0 && s != "0.00" {
		sign = "-"
	}
	return sign + "₹" + string(grouped) + fracPart
}
