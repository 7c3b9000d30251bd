package scheduler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/filepulse/schema"
)

// searchHorizonDays bounds the calendar walk in Rule.Next. Every supported
// frequency fires at least once a year.
const searchHorizonDays = 2 * 366

// Rule is a calendar firing rule. A candidate instant fires when its month,
// day and weekday all match and its clock reads Hour:Minute.
type Rule struct {
	Minute    int
	Hour      int            // -1 fires every hour
	DayOf     func(int) bool // day-of-month filter, nil matches all
	Weekday   int            // -1 matches every weekday
	Months    []time.Month   // empty matches every month
	NotBefore time.Time      // no fire earlier than this instant
	Location  *time.Location // nil uses the location of the time passed to Next
}

// Next returns the first firing instant strictly after t, or the zero time
// when nothing fires within the search horizon. It implements cron.Schedule.
func (r *Rule) Next(t time.Time) time.Time {
	loc := r.Location
	if loc == nil {
		loc = t.Location()
	}
	t = t.In(loc)
	if !r.NotBefore.IsZero() && t.Before(r.NotBefore) {
		t = r.NotBefore.Add(-time.Nanosecond).In(loc)
	}

	hours := []int{r.Hour}
	if r.Hour < 0 {
		hours = make([]int, 24)
		for h := range hours {
			hours[h] = h
		}
	}

	y, m, d := t.Date()
	for i := 0; i <= searchHorizonDays; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		if !r.matchesDay(day) {
			continue
		}
		for _, h := range hours {
			c := time.Date(day.Year(), day.Month(), day.Day(), h, r.Minute, 0, 0, loc)
			// Skip instants a DST jump pushed onto another day.
			if c.Day() != day.Day() {
				continue
			}
			if c.After(t) {
				return c
			}
		}
	}
	return time.Time{}
}

func (r *Rule) matchesDay(day time.Time) bool {
	if len(r.Months) > 0 && !slices.Contains(r.Months, day.Month()) {
		return false
	}
	if r.DayOf != nil && !r.DayOf(day.Day()) {
		return false
	}
	if r.Weekday >= 0 && time.Weekday(r.Weekday) != day.Weekday() {
		return false
	}
	return true
}

func dayMultipleOf(n int) func(int) bool {
	return func(day int) bool { return day%n == 0 }
}

func dayEquals(n int) func(int) bool {
	return func(day int) bool { return day == n }
}

// RuleFor translates a frequency and clock time into a calendar rule.
// Fortnightly fires on days 14 and 28 of each month, which only
// approximates a 14 day spacing across month boundaries.
func RuleFor(freq schema.Frequency, hour, minute int, loc *time.Location) (*Rule, error) {
	r := &Rule{Minute: minute, Hour: hour, Weekday: -1, Location: loc}
	switch freq {
	case schema.Hourly:
		r.Hour = -1
	case schema.Daily:
	case schema.EveryTwoDays:
		r.DayOf = dayMultipleOf(2)
	case schema.EveryThreeDays:
		r.DayOf = dayMultipleOf(3)
	case schema.Weekly:
		r.Weekday = int(time.Monday)
	case schema.Fortnightly:
		r.DayOf = dayMultipleOf(14)
	case schema.Monthly:
		r.DayOf = dayEquals(1)
	case schema.EverySixMonths:
		r.DayOf = dayEquals(1)
		r.Months = []time.Month{time.January, time.July}
	case schema.Yearly:
		r.DayOf = dayEquals(1)
		r.Months = []time.Month{time.January}
	default:
		return nil, fmt.Errorf("invalid frequency: %s", freq)
	}
	return r, nil
}

// ParseClock parses a 24-hour "HH:MM" time of day. Single digit hours and
// minutes are accepted.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format '%s': expected HH:MM", s)
	}
	hour, err = parseClockField(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time format '%s': %w", s, err)
	}
	minute, err = parseClockField(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time format '%s': %w", s, err)
	}
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time format '%s': invalid time range", s)
	}
	return hour, minute, nil
}

func parseClockField(s string) (int, error) {
	if len(s) == 0 || len(s) > 2 {
		return 0, fmt.Errorf("field %q must have 1 or 2 digits", s)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("field %q is not a number", s)
		}
	}
	return strconv.Atoi(s)
}

// ParseStartDate parses a YYYY-MM-DD date as midnight in loc. An empty
// string yields the zero time.
func ParseStartDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(schema.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format '%s': expected YYYY-MM-DD", s)
	}
	return d, nil
}
