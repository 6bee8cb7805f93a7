// Package metrics provides the percentage math used for ranking display and
// chart-style indicators.
package metrics

import (
	"math"
	"strconv"
)

// Value returns value/total as a percentage rounded to two decimal places.
// A zero total yields 0, never a division error.
func Value(total, value int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(value)/float64(total)*100*100) / 100
}

// Percentage formats Value with a trailing percent sign, e.g. "66.67%".
func Percentage(total, value int) string {
	return Format(Value(total, value)) + "%"
}

// Format renders a rounded percentage without trailing zeros: 0 -> "0",
// 50 -> "50", 66.67 -> "66.67".
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
