// Package analytics holds the pure filter, aggregation and consistency logic behind the dashboard.
package analytics

import "math"

// SafeDiv divides n by d, returning fallback when the denominator is zero, NaN or infinite
// or when the quotient is not a finite number.
func SafeDiv(n, d, fallback float64) float64 {
	if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return fallback
	}
	q := n / d
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return fallback
	}
	return q
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	r := math.Round(v*100) / 100
	if math.IsInf(r, 0) {
		return v
	}
	return r
}

// Rate returns count/total as a percentage rounded to two decimals, 0 on an empty total.
func Rate(count, total int) float64 {
	return Round2(SafeDiv(float64(count), float64(total), 0) * 100)
}

// Mean averages the values and rounds to two decimals. An empty input yields 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return Round2(SafeDiv(sum, float64(len(values)), 0))
}

// Sum adds the values.
func Sum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// Mode returns the most frequent non-empty label. Ties go to the label seen first;
// input without a non-empty label yields nil.
func Mode(labels []string) *string {
	order, counts := countLabels(labels)
	if len(order) == 0 {
		return nil
	}
	best := order[0]
	for _, label := range order[1:] {
		if counts[label] > counts[best] {
			best = label
		}
	}
	return &best
}

// ArgMax returns the index of the largest value, first occurrence on ties, or -1 on empty input.
func ArgMax(values []float64) int {
	idx := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if idx < 0 || v > values[idx] {
			idx = i
		}
	}
	return idx
}

// ArgMin returns the index of the smallest value, first occurrence on ties, or -1 on empty input.
func ArgMin(values []float64) int {
	idx := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if idx < 0 || v < values[idx] {
			idx = i
		}
	}
	return idx
}

func stringPtr(s string) *string {
	return &s
}
