package algo

import (
	"math"
	"testing"
	"time"

	"github.com/huangsam/filepulse/schema"
	"github.com/stretchr/testify/assert"
)

var refNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return refNow.Add(-time.Duration(d * float64(24*time.Hour)))
}

// TestClassifyDefaults covers every band and both gaps of the default set.
func TestClassifyDefaults(t *testing.T) {
	thresholds := schema.DefaultThresholds()
	tests := []struct {
		name     string
		modified time.Time
		expected schema.Band
	}{
		{"just now", refNow, schema.GreenBand},
		{"green upper bound", daysAgo(3.99), schema.GreenBand},
		{"amber lower bound", daysAgo(4), schema.AmberBand},
		{"amber upper bound", daysAgo(14.5), schema.AmberBand},
		{"red lower bound", daysAgo(15), schema.RedBand},
		{"red upper bound", daysAgo(20.9), schema.RedBand},
		{"past red", daysAgo(21), schema.NoneBand},
		{"future timestamp", refNow.Add(48 * time.Hour), schema.GreenBand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(refNow, tt.modified, thresholds))
		})
	}
}

// TestClassifyGapsAndOrder checks gaps between ranges and red-first evaluation.
func TestClassifyGapsAndOrder(t *testing.T) {
	gapped := schema.ThresholdSet{
		Red:   schema.Range{Start: 30, End: 60},
		Amber: schema.Range{Start: 10, End: 20},
		Green: schema.Range{Start: 0, End: 5},
	}
	assert.Equal(t, schema.NoneBand, BandForDays(7, gapped))
	assert.Equal(t, schema.NoneBand, BandForDays(25, gapped))
	assert.Equal(t, schema.AmberBand, BandForDays(10, gapped))

	// Overlapping sets are rejected before storage, but evaluation order
	// must still be red, amber, green.
	overlapping := schema.ThresholdSet{
		Red:   schema.Range{Start: 5, End: 10},
		Amber: schema.Range{Start: 5, End: 10},
		Green: schema.Range{Start: 0, End: 10},
	}
	assert.Equal(t, schema.RedBand, BandForDays(7, overlapping))
	assert.Equal(t, schema.GreenBand, BandForDays(2, overlapping))
}

func TestNeglectDays(t *testing.T) {
	assert.InDelta(t, 1.5, NeglectDays(refNow, refNow.Add(-36*time.Hour)), 1e-9)
	assert.Equal(t, 0.0, NeglectDays(refNow, refNow.Add(time.Hour)))
}

func TestFormatNeglect(t *testing.T) {
	tests := []struct {
		days     float64
		expected string
	}{
		{0, "0 days 00 h"},
		{1.5, "1 days 12 h"},
		{3.99, "3 days 23 h"},
		{20.25, "20 days 06 h"},
		{-2, "0 days 00 h"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatNeglect(tt.days))
	}
}

func TestCountBands(t *testing.T) {
	rows := []schema.ReportRow{{Band: schema.RedBand}, {Band: schema.RedBand}, {Band: schema.NoneBand}}
	counts := CountBands(rows)
	assert.Equal(t, 2, counts[schema.RedBand])
	assert.Equal(t, 0, counts[schema.AmberBand])
	assert.Equal(t, 0, counts[schema.GreenBand])
	assert.Equal(t, 1, counts[schema.NoneBand])
}

func TestRankRows(t *testing.T) {
	rows := []schema.ReportRow{
		{File: schema.FileRecord{Path: "/b"}, AgeDays: 2},
		{File: schema.FileRecord{Path: "/a"}, AgeDays: 9},
		{File: schema.FileRecord{Path: "/c"}, AgeDays: 2},
	}

	ranked := RankRows(rows, 0)
	assert.Equal(t, "/a", ranked[0].File.Path)
	assert.Equal(t, "/b", ranked[1].File.Path)
	assert.Equal(t, "/c", ranked[2].File.Path)

	assert.Len(t, RankRows(rows, 2), 2)
}

func TestFilterBands(t *testing.T) {
	rows := []schema.ReportRow{{Band: schema.RedBand}, {Band: schema.GreenBand}}
	assert.Len(t, FilterBands(rows, nil), 2)
	kept := FilterBands(rows, map[schema.Band]struct{}{schema.GreenBand: {}})
	assert.Len(t, kept, 1)
	assert.Equal(t, schema.GreenBand, kept[0].Band)
}

// BenchmarkClassify benchmarks band classification.
func BenchmarkClassify(b *testing.B) {
	thresholds := schema.DefaultThresholds()
	modified := daysAgo(12.3)
	for b.Loop() {
		_ = Classify(refNow, modified, thresholds)
	}
}

// FuzzBandForDays checks that classification is total and matches a
// containing range whenever it returns a colored band.
func FuzzBandForDays(f *testing.F) {
	f.Add(0.0)
	f.Add(3.999)
	f.Add(14.0)
	f.Add(400.0)
	f.Add(-5.0)

	thresholds := schema.DefaultThresholds()
	f.Fuzz(func(t *testing.T, days float64) {
		band := BandForDays(days, thresholds)
		if days < 0 || math.IsNaN(days) {
			days = 0
		}
		if days > 1e9 {
			return
		}
		d := int(days)
		switch band {
		case schema.RedBand:
			assert.True(t, thresholds.Red.Contains(d))
		case schema.AmberBand:
			assert.True(t, thresholds.Amber.Contains(d))
		case schema.GreenBand:
			assert.True(t, thresholds.Green.Contains(d))
		case schema.NoneBand:
			assert.False(t, thresholds.Red.Contains(d) || thresholds.Amber.Contains(d) || thresholds.Green.Contains(d))
		default:
			t.Fatalf("unexpected band %q", band)
		}
	})
}
