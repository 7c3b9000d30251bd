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

// PrintArchive outputs the archive listing, newest first.
func PrintArchive(entries []schema.ArchiveEntry, cfg *contract.Config) error {
	enriched := schema.EnrichArchive(entries)
	return dispatch(cfg,
		func(w io.Writer) error { return writeJSON(w, enriched) },
		func(w io.Writer) error { return writeArchiveCSV(w, enriched) },
		func(w io.Writer) error { return writeArchiveTable(w, enriched) },
	)
}

func writeArchiveTable(w io.Writer, entries []schema.EnrichedArchiveEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No archived reports.")
		return err
	}
	data := make([][]string, len(entries))
	for i, e := range entries {
		data[i] = []string{
			strconv.Itoa(e.Rank),
			e.Name,
			contract.ClipText(e.Title, 40),
			e.SizeLabel,
			e.Created,
		}
	}
	if err := renderTable(w, []string{"#", "Name", "Title", "Size", "Created"}, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d archived reports\n", len(entries))
	return err
}

func writeArchiveCSV(w io.Writer, entries []schema.EnrichedArchiveEntry) error {
	header := []string{"rank", "name", "title", "size_bytes", "created", "path", "original_name"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range entries {
			rec := []string{
				strconv.Itoa(e.Rank),
				e.Name,
				e.Title,
				strconv.FormatInt(e.Size, 10),
				e.ArchivedAt().Format(time.RFC3339),
				e.Path,
				e.OriginalName,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// PrintArchiveStatus outputs the archive summary.
func PrintArchiveStatus(status schema.ArchiveStatus, cfg *contract.Config) error {
	pairs := [][2]string{
		{"root", status.Root},
		{"reports", strconv.Itoa(status.Reports)},
		{"total_size", schema.FormatSize(status.TotalBytes, 1)},
		{"newest", formatOptionalTime(status.Newest)},
		{"oldest", formatOptionalTime(status.Oldest)},
	}
	return dispatch(cfg,
		func(w io.Writer) error { return writeJSON(w, status) },
		func(w io.Writer) error { return writePairsCSV(w, pairs) },
		func(w io.Writer) error { return renderKeyValues(w, pairs) },
	)
}

// writePairsCSV writes labelled values as field,value records.
func writePairsCSV(w io.Writer, pairs [][2]string) error {
	return writeCSVWithHeader(w, []string{"field", "value"}, func(cw *csv.Writer) error {
		for _, p := range pairs {
			if err := cw.Write([]string{p[0], p[1]}); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatOptionalTime renders t as a UTC date-time, or "-" when unset.
func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.DateTime)
}
