package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/schema"
)

// PrintReportRows outputs classified rows, dispatching based on the output
// format configured. total is the number of rows before any filtering.
func PrintReportRows(rows []schema.ReportRow, total int, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)
	return dispatch(cfg,
		func(w io.Writer) error { return writeRowsJSON(w, rows) },
		func(w io.Writer) error { return writeRowsCSV(w, rows, fmtFloat) },
		func(w io.Writer) error { return writeRowsTable(w, rows, total, cfg, duration) },
	)
}

// writeRowsTable generates and writes the human-readable table.
func writeRowsTable(w io.Writer, rows []schema.ReportRow, total int, cfg *contract.Config, duration time.Duration) error {
	pathWidth := GetMaxTablePathWidth(cfg)
	data := make([][]string, 0, len(rows))
	counts := make(map[schema.Band]int, len(schema.AllBands))
	for i, r := range rows {
		counts[r.Band]++
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(r.File.Path, pathWidth),
			r.Size,
			r.ModifiedAt,
			contract.ClipText(r.File.Owner, 16),
			r.Neglect,
			contract.GetColorLabel(r.Band),
		})
	}

	header := []string{"#", "Path", "Size", "Last Changed", "Owner", "Neglect", "State"}
	if err := renderTable(w, header, data); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing %d of %d files (red: %d, amber: %d, green: %d, none: %d)\n",
		len(rows), total, counts[schema.RedBand], counts[schema.AmberBand],
		counts[schema.GreenBand], counts[schema.NoneBand]); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Scan completed in %v. History backend: %s\n", duration.Round(time.Millisecond), cfg.HistoryBackend); err != nil {
		return err
	}
	return nil
}

// writeRowsCSV writes classified rows in CSV format.
func writeRowsCSV(w io.Writer, rows []schema.ReportRow, fmtFloat func(float64) string) error {
	header := []string{
		"rank",
		"path",
		"name",
		"size_bytes",
		"size",
		"modified_at",
		"owner",
		"age_days",
		"neglect",
		"band",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range rows {
			rec := []string{
				strconv.Itoa(i + 1),
				r.File.Path,
				r.File.Name,
				strconv.FormatInt(r.File.SizeBytes, 10),
				r.Size,
				r.File.Modified.UTC().Format(time.RFC3339),
				r.File.Owner,
				fmtFloat(r.AgeDays),
				r.Neglect,
				string(r.Band),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeRowsJSON writes classified rows in JSON format with a rank added.
func writeRowsJSON(w io.Writer, rows []schema.ReportRow) error {
	type jsonRow struct {
		Rank int `json:"rank"`
		schema.ReportRow
	}

	output := make([]jsonRow, len(rows))
	for i, r := range rows {
		output[i] = jsonRow{Rank: i + 1, ReportRow: r}
	}
	return writeJSON(w, output)
}

// PrintGenerateSummary outputs the outcome of a report generation.
func PrintGenerateSummary(s schema.GenerateSummary, cfg *contract.Config) error {
	pairs := [][2]string{
		{"report", s.ReportPath},
		{"archived", s.ArchivedPath},
		{"files", strconv.Itoa(s.TotalFiles)},
	}
	for _, b := range schema.AllBands {
		pairs = append(pairs, [2]string{string(b), strconv.Itoa(s.Counts[b])})
	}
	pairs = append(pairs, [2]string{"duration", (time.Duration(s.DurationMs) * time.Millisecond).String()})
	if s.RunID > 0 {
		pairs = append(pairs, [2]string{"run_id", strconv.FormatInt(s.RunID, 10)})
	}
	return dispatch(cfg,
		func(w io.Writer) error { return writeJSON(w, s) },
		func(w io.Writer) error { return writePairsCSV(w, pairs) },
		func(w io.Writer) error { return renderKeyValues(w, pairs) },
	)
}
