// Package scoring holds the numeric core of the special-examination engine:
// raw value normalisation, target-relative performance, rating bands and the
// averaging used at the aspect and overall levels. Everything here is pure;
// persistence and orchestration live in the service layer.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/binapora/binapora-api/internal/models"
)

// trendThreshold is the minimum movement (in percentage points) between the
// first and last value of a series before it counts as a real trend.
const trendThreshold = 0.5

// ParseValue normalises a raw measurement string into a numeric value.
// Durations ("mm:ss" or "hh:mm:ss", fractional seconds allowed) become total
// seconds; plain numbers accept both decimal comma and decimal dot. Blank or
// malformed input yields nil; downstream stages treat nil as "untested",
// never as zero.
func ParseValue(raw string) *float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if strings.Contains(trimmed, ":") {
		return parseDuration(trimmed)
	}

	normalized := strings.ReplaceAll(trimmed, ",", ".")
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}

func parseDuration(raw string) *float64 {
	parts := strings.Split(raw, ":")

	var hours, minutes, seconds float64
	switch len(parts) {
	case 2:
		m, okM := parsePart(parts[0])
		s, okS := parsePart(parts[1])
		if !okM || !okS {
			return nil
		}
		minutes, seconds = m, s
	case 3:
		h, okH := parsePart(parts[0])
		m, okM := parsePart(parts[1])
		s, okS := parsePart(parts[2])
		if !okH || !okM || !okS {
			return nil
		}
		hours, minutes, seconds = h, m, s
	default:
		return nil
	}

	total := hours*3600 + minutes*60 + seconds
	return &total
}

func parsePart(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// Performance computes the target-relative percentages for one measurement.
// The bounded value is clamped to [0,100] and feeds every average; the real
// value keeps over-achievement visible (110% of target stays 110). A missing
// measurement or a missing/non-positive target yields nil for both.
func Performance(measurement, target *float64, direction models.Direction) (bounded, real *float64) {
	if measurement == nil || target == nil || *target <= 0 {
		return nil, nil
	}

	var pct float64
	switch direction {
	case models.DirectionMin:
		if *measurement == 0 {
			return nil, nil
		}
		pct = (*target / *measurement) * 100
	case models.DirectionMax:
		pct = (*measurement / *target) * 100
	default:
		return nil, nil
	}

	realPct := Round2(pct)
	boundedPct := Round2(clamp(pct, 0, 100))
	return &boundedPct, &realPct
}

// Classify maps a bounded percentage onto the five-band rating table.
// The top band is reachable only at exactly 100 because bounded values are
// clamped there.
func Classify(bounded *float64) *models.Band {
	if bounded == nil {
		return nil
	}

	var band models.Band
	switch v := *bounded; {
	case v < 30:
		band = models.BandVeryLow
	case v < 60:
		band = models.BandLow
	case v < 85:
		band = models.BandMedium
	case v < 100:
		band = models.BandNearTarget
	default:
		band = models.BandTarget
	}
	return &band
}

// Average returns the arithmetic mean of the non-nil values, rounded to two
// decimals, or nil when nothing contributed. An aspect with zero tested items
// is undefined, not zero, so untested participants are not penalised.
func Average(values []*float64) *float64 {
	sum := 0.0
	count := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		count++
	}
	if count == 0 {
		return nil
	}
	avg := Round2(sum / float64(count))
	return &avg
}

// Trend compares the first and last non-nil value of a chronological series.
// Fewer than two usable points, or a movement within the threshold, counts as
// stable.
func Trend(values []*float64) models.TrendDirection {
	var first, last *float64
	for _, v := range values {
		if v == nil {
			continue
		}
		if first == nil {
			first = v
		}
		last = v
	}
	if first == nil || last == nil || first == last {
		return models.TrendStable
	}

	delta := *last - *first
	switch {
	case delta > trendThreshold:
		return models.TrendUp
	case delta < -trendThreshold:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

// Round2 rounds to two decimals, half away from zero. The small bias keeps
// decimal midpoints such as 96.665 rounding up despite their binary
// representation sitting a hair below the midpoint.
func Round2(v float64) float64 {
	return math.Round(v*100+math.Copysign(1e-9, v)) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
