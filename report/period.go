package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Bucket is one half-open time interval [Start, End) produced by a Period,
// used by the interval handler to group postings (spec §4.3).
type Bucket struct {
	Start time.Time
	End   time.Time
}

// Period buckets calendar time into intervals for the interval handler.
type Period interface {
	// BucketOf returns the bucket containing t.
	BucketOf(t time.Time) Bucket
}

// ParsePeriod parses one of "daily", "weekly", "monthly", "quarterly",
// "yearly", or "every N <unit> [from DATE]" into a Period.
func ParsePeriod(spec string) (Period, error) {
	spec = strings.TrimSpace(spec)
	switch spec {
	case "daily":
		return &calendarPeriod{unit: "day", n: 1}, nil
	case "weekly":
		return &calendarPeriod{unit: "week", n: 1}, nil
	case "monthly":
		return &calendarPeriod{unit: "month", n: 1}, nil
	case "quarterly":
		return &calendarPeriod{unit: "month", n: 3}, nil
	case "yearly":
		return &calendarPeriod{unit: "year", n: 1}, nil
	}
	if strings.HasPrefix(spec, "every ") {
		return parseEvery(spec)
	}
	return nil, fmt.Errorf("unrecognized period expression %q", spec)
}

func parseEvery(spec string) (Period, error) {
	rest := strings.TrimPrefix(spec, "every ")
	var anchor time.Time
	if idx := strings.Index(rest, " from "); idx >= 0 {
		dateStr := strings.TrimSpace(rest[idx+len(" from "):])
		t, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid anchor date %q: %w", dateStr, err)
		}
		anchor = t
		rest = rest[:idx]
	}
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return nil, fmt.Errorf("expected \"every N <unit>\", got %q", spec)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid repeat count %q", fields[0])
	}
	unit := strings.TrimSuffix(fields[1], "s")
	switch unit {
	case "day", "week", "month", "year":
	default:
		return nil, fmt.Errorf("unrecognized period unit %q", fields[1])
	}
	return &calendarPeriod{unit: unit, n: n, anchor: anchor}, nil
}

// calendarPeriod buckets time in fixed multiples of day/week/month/year,
// anchored at either the Unix epoch or an explicit "from" date.
type calendarPeriod struct {
	unit   string
	n      int
	anchor time.Time
}

func (c *calendarPeriod) BucketOf(t time.Time) Bucket {
	t = truncateToDay(t.UTC())
	anchor := c.anchor
	if anchor.IsZero() {
		anchor = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	switch c.unit {
	case "day":
		days := floorDiv(int(t.Sub(anchor).Hours()/24), c.n)
		start := anchor.AddDate(0, 0, days*c.n)
		return Bucket{Start: start, End: start.AddDate(0, 0, c.n)}
	case "week":
		days := floorDiv(int(t.Sub(anchor).Hours()/24), c.n*7)
		start := anchor.AddDate(0, 0, days*c.n*7)
		return Bucket{Start: start, End: start.AddDate(0, 0, c.n*7)}
	case "month":
		months := floorDiv(monthsBetween(anchor, t), c.n)
		start := addMonths(anchor, months*c.n)
		if start.After(t) {
			months--
			start = addMonths(anchor, months*c.n)
		}
		return Bucket{Start: start, End: addMonths(start, c.n)}
	case "year":
		years := floorDiv(t.Year()-anchor.Year(), c.n)
		start := time.Date(anchor.Year()+years*c.n, anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
		if start.After(t) {
			years--
			start = time.Date(anchor.Year()+years*c.n, anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
		}
		end := time.Date(start.Year()+c.n, start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		return Bucket{Start: start, End: end}
	default:
		return Bucket{Start: t, End: t.AddDate(0, 0, 1)}
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// floorDiv computes floor(a/b) for positive b, handling negative a (dates
// before the anchor).
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func addMonths(t time.Time, months int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(months), t.Day(), 0, 0, 0, 0, time.UTC)
}
