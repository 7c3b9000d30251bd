package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/schema"
)

// PrintSchedule outputs the persisted schedule and registered jobs.
func PrintSchedule(status schema.ScheduleStatus, cfg *contract.Config) error {
	return dispatch(cfg,
		func(w io.Writer) error { return writeJSON(w, status) },
		func(w io.Writer) error { return writeJobsCSV(w, status.Jobs) },
		func(w io.Writer) error { return writeScheduleTable(w, status, cfg.Timezone) },
	)
}

func writeScheduleTable(w io.Writer, status schema.ScheduleStatus, loc *time.Location) error {
	if !status.Active {
		_, err := fmt.Fprintf(w, "No active schedule. Time zone: %s\n", status.Timezone)
		return err
	}
	pairs := [][2]string{
		{"start_date", status.Date},
		{"time", status.Time},
		{"frequency", string(status.Frequency)},
		{"timezone", status.Timezone},
	}
	if err := renderKeyValues(w, pairs); err != nil {
		return err
	}
	if len(status.Jobs) == 0 {
		_, err := fmt.Fprintln(w, "No job is registered. Run the daemon to fire scheduled reports.")
		return err
	}
	data := make([][]string, len(status.Jobs))
	for i, j := range status.Jobs {
		data[i] = []string{j.ID, string(j.Frequency), j.Time, formatNextFire(j.NextFire, loc)}
	}
	return renderTable(w, []string{"Job", "Frequency", "Time", "Next Fire"}, data)
}

func writeJobsCSV(w io.Writer, jobs []schema.JobInfo) error {
	header := []string{"id", "frequency", "time", "start_date", "next_fire"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, j := range jobs {
			next := ""
			if !j.NextFire.IsZero() {
				next = j.NextFire.Format(time.RFC3339)
			}
			if err := cw.Write([]string{j.ID, string(j.Frequency), j.Time, j.StartDate, next}); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatNextFire renders a fire time in the scheduler zone.
func formatNextFire(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "never"
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02 15:04 MST")
}

// PrintThresholds outputs the three classification ranges.
func PrintThresholds(set schema.ThresholdSet, cfg *contract.Config) error {
	ranges := []struct {
		band schema.Band
		r    schema.Range
	}{
		{schema.RedBand, set.Red},
		{schema.AmberBand, set.Amber},
		{schema.GreenBand, set.Green},
	}
	return dispatch(cfg,
		func(w io.Writer) error { return writeJSON(w, set) },
		func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"band", "start_day", "end_day"}, func(cw *csv.Writer) error {
				for _, x := range ranges {
					if err := cw.Write([]string{string(x.band), strconv.Itoa(x.r.Start), strconv.Itoa(x.r.End)}); err != nil {
						return err
					}
				}
				return nil
			})
		},
		func(w io.Writer) error {
			data := make([][]string, len(ranges))
			for i, x := range ranges {
				data[i] = []string{contract.GetColorLabel(x.band), strconv.Itoa(x.r.Start), strconv.Itoa(x.r.End)}
			}
			return renderTable(w, []string{"State", "From Day", "To Day"}, data)
		},
	)
}

// PrintClassification outputs the band of a single neglect age.
func PrintClassification(c schema.Classification, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	return dispatch(cfg,
		func(w io.Writer) error { return writeJSON(w, c) },
		func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"age_days", "neglect", "band"}, func(cw *csv.Writer) error {
				return cw.Write([]string{fmtFloat(c.AgeDays), c.Neglect, string(c.Band)})
			})
		},
		func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "%s days (%s) => %s\n", fmtFloat(c.AgeDays), c.Neglect, contract.GetColorLabel(c.Band))
			return err
		},
	)
}

// PrintHistoryStatus outputs status information about the history store.
func PrintHistoryStatus(status schema.HistoryStatus, cfg *contract.Config) error {
	pairs := [][2]string{
		{"backend", status.Backend},
		{"connected", strconv.FormatBool(status.Connected)},
	}
	if status.Connected {
		pairs = append(pairs, [2]string{"total_runs", strconv.FormatInt(status.TotalRuns, 10)})
		if status.TotalRuns > 0 {
			pairs = append(pairs,
				[2]string{"last_run_id", strconv.FormatInt(status.LastRunID, 10)},
				[2]string{"last_run", formatOptionalTime(status.LastRunTime)},
				[2]string{"oldest_run", formatOptionalTime(status.OldestRunTime)},
				[2]string{"total_files_seen", strconv.FormatInt(status.TotalFilesSeen, 10)},
			)
		}
		tables := make([]string, 0, len(status.TableSizes))
		for table := range status.TableSizes {
			tables = append(tables, table)
		}
		slices.Sort(tables)
		for _, table := range tables {
			pairs = append(pairs, [2]string{table + "_rows", strconv.FormatInt(status.TableSizes[table], 10)})
		}
	}
	return dispatch(cfg,
		func(w io.Writer) error { return writeJSON(w, status) },
		func(w io.Writer) error { return writePairsCSV(w, pairs) },
		func(w io.Writer) error { return renderKeyValues(w, pairs) },
	)
}
