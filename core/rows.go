package core

import (
	"time"

	"github.com/huangsam/filepulse/core/algo"
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/schema"
)

// Display limits for report rows.
const (
	MaxPathWidth  = 50
	MaxOwnerWidth = 30
	MaxNameWidth  = 30
)

// BuildRows classifies records against thresholds at now and prepares the
// display strings of every row. Records keep their input order.
func BuildRows(records []schema.FileRecord, thresholds schema.ThresholdSet, now time.Time, precision int) []schema.ReportRow {
	rows := make([]schema.ReportRow, 0, len(records))
	for _, rec := range records {
		days := algo.NeglectDays(now, rec.Modified)
		band := algo.BandForDays(days, thresholds)
		rows = append(rows, schema.ReportRow{
			File:        rec,
			AgeDays:     days,
			Band:        band,
			DisplayPath: contract.TruncatePath(rec.Path, MaxPathWidth),
			Size:        schema.FormatSize(rec.SizeBytes, precision),
			ModifiedAt:  rec.Modified.UTC().Format(schema.TimestampLayout),
			Neglect:     algo.FormatNeglect(days),
			State:       band.Title(),
		})
	}
	return rows
}
