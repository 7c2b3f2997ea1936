package utils

import (
	"math"
	"strings"
)

// Minor-unit digits per ISO 4217 for the currencies that differ from the
// usual 2. Anything unlisted rounds to 2 decimals.
var currencyMinorDigits = map[string]int{
	"BHD": 3,
	"IQD": 3,
	"JOD": 3,
	"KWD": 3,
	"LYD": 3,
	"OMR": 3,
	"TND": 3,
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"CLP": 0,
	"ISK": 0,
}

// MinorUnitDigits returns the number of decimal places of the currency's
// minor unit.
func MinorUnitDigits(currency string) int {
	if d, ok := currencyMinorDigits[strings.ToUpper(currency)]; ok {
		return d
	}
	return 2
}

// RoundToMinorUnit rounds an amount to the currency's minor-unit precision
// using round-half-even, so repeated commission computations don't drift
// systematically up or down.
func RoundToMinorUnit(amount float64, currency string) float64 {
	scale := math.Pow(10, float64(MinorUnitDigits(currency)))
	return math.RoundToEven(amount*scale) / scale
}

// CommissionAmount computes gross*rate/100 rounded to the currency's minor
// unit. The result is what gets snapshotted onto the earning row.
func CommissionAmount(gross, rate float64, currency string) float64 {
	return RoundToMinorUnit(gross*rate/100, currency)
}
