package analytics

import (
	"math"
	"sort"

	"github.com/noah-isme/scas-api/internal/models"
)

const defaultHistogramBins = 20

// ValueCounts counts each non-empty label, most frequent first. Ties keep first-seen order.
func ValueCounts(labels []string) []models.SeriesPoint {
	order, counts := countLabels(labels)
	points := make([]models.SeriesPoint, 0, len(order))
	for _, label := range order {
		points = append(points, models.SeriesPoint{Label: label, Value: float64(counts[label])})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Value > points[j].Value
	})
	return points
}

func countLabels(labels []string) ([]string, map[string]int) {
	order := make([]string, 0)
	counts := make(map[string]int)
	for _, label := range labels {
		if label == "" {
			continue
		}
		if _, ok := counts[label]; !ok {
			order = append(order, label)
		}
		counts[label]++
	}
	return order, counts
}

// GroupSum sums values per non-empty label in first-seen order.
func GroupSum(labels []string, values []float64) []models.SeriesPoint {
	order, sums, _ := group(labels, values)
	points := make([]models.SeriesPoint, 0, len(order))
	for _, label := range order {
		points = append(points, models.SeriesPoint{Label: label, Value: Round2(sums[label])})
	}
	return points
}

// GroupMean averages values per label in first-seen order.
func GroupMean(labels []string, values []float64) []models.SeriesPoint {
	order, sums, counts := group(labels, values)
	points := make([]models.SeriesPoint, 0, len(order))
	for _, label := range order {
		points = append(points, models.SeriesPoint{
			Label: label,
			Value: Round2(SafeDiv(sums[label], float64(counts[label]), 0)),
		})
	}
	return points
}

func group(labels []string, values []float64) ([]string, map[string]float64, map[string]int) {
	order := make([]string, 0)
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i, label := range labels {
		if i >= len(values) {
			break
		}
		if label == "" {
			continue
		}
		if _, ok := counts[label]; !ok {
			order = append(order, label)
		}
		sums[label] += values[i]
		counts[label]++
	}
	return order, sums, counts
}

// Histogram splits the value range into equal-width bins. The last bin includes its upper edge.
// NaN and infinite values are ignored. A range too wide to divide collapses into one bin.
func Histogram(values []float64, bins int) []models.HistogramBin {
	if bins <= 0 {
		bins = defaultHistogramBins
	}

	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return []models.HistogramBin{}
	}

	lo, hi := finite[0], finite[0]
	for _, v := range finite[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	width := (hi - lo) / float64(bins)
	if lo == hi || math.IsInf(width, 0) || width == 0 {
		return []models.HistogramBin{{Lower: Round2(lo), Upper: Round2(hi), Count: len(finite)}}
	}

	out := make([]models.HistogramBin, bins)
	for i := range out {
		out[i] = models.HistogramBin{
			Lower: Round2(lo + float64(i)*width),
			Upper: Round2(lo + float64(i+1)*width),
		}
	}
	for _, v := range finite {
		idx := int((v - lo) / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}
