// Package algo holds the pure classification and ranking logic.
package algo

import (
	"fmt"
	"math"
	"time"

	"github.com/huangsam/filepulse/schema"
)

const (
	secondsPerDay = 86400.0
	maxDays       = 1e6  // far past any valid range
	hourEpsilon   = 1e-9 // absorbs float error on whole hours
)

// NeglectDays returns the fractional days elapsed between modified and now.
// A modification time in the future yields zero.
func NeglectDays(now, modified time.Time) float64 {
	secs := now.Sub(modified).Seconds()
	if secs < 0 {
		secs = 0
	}
	return secs / secondsPerDay
}

// BandForDays floors the age and checks red, amber and green in that order.
// The first range containing the age wins. Ages outside every range land
// in NoneBand.
func BandForDays(days float64, t schema.ThresholdSet) schema.Band {
	if days < 0 || math.IsNaN(days) {
		days = 0
	}
	if days > maxDays {
		days = maxDays
	}
	d := int(math.Floor(days))
	switch {
	case t.Red.Contains(d):
		return schema.RedBand
	case t.Amber.Contains(d):
		return schema.AmberBand
	case t.Green.Contains(d):
		return schema.GreenBand
	default:
		return schema.NoneBand
	}
}

// Classify maps a modification time to a band relative to now.
func Classify(now, modified time.Time, t schema.ThresholdSet) schema.Band {
	return BandForDays(NeglectDays(now, modified), t)
}

// FormatNeglect renders a fractional age as "D days HH h".
func FormatNeglect(days float64) string {
	if days < 0 || math.IsNaN(days) {
		days = 0
	}
	whole := math.Floor(days)
	hours := int((days-whole)*24 + hourEpsilon)
	if hours > 23 {
		hours = 23
	}
	return fmt.Sprintf("%d days %02d h", int(whole), hours)
}

// CountBands tallies rows per band. Every band is present in the result.
func CountBands(rows []schema.ReportRow) map[schema.Band]int {
	counts := make(map[schema.Band]int, len(schema.AllBands))
	for _, b := range schema.AllBands {
		counts[b] = 0
	}
	for _, r := range rows {
		counts[r.Band]++
	}
	return counts
}
