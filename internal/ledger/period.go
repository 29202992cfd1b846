package ledger

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"
)

type PeriodKind string

const (
	Last7Days  PeriodKind = "last7days"
	Last30Days PeriodKind = "last30days"
	Last90Days PeriodKind = "last90days"
	LastYear   PeriodKind = "lastYear"
	Custom     PeriodKind = "custom"
	AllTime    PeriodKind = "all"
)

const day = 24 * time.Hour

// PeriodFilter is a predicate over entry timestamps. Zero Start/End are missing bounds.
type PeriodFilter struct {
	Kind  PeriodKind
	Start time.Time
	End   time.Time
}

// ParsePeriod builds a filter from request parameters. Empty kind means AllTime.
func ParsePeriod(kind, start, end string) (PeriodFilter, error) {
	f := PeriodFilter{Kind: PeriodKind(strings.TrimSpace(kind))}
	switch f.Kind {
	case "":
		f.Kind = AllTime
	case Last7Days, Last30Days, Last90Days, LastYear, AllTime:
	case Custom:
		if start != "" {
			t, ok := ParseTimestamp(start)
			if !ok {
				return PeriodFilter{}, invalid("start", fmt.Sprintf("unparseable date %q", start))
			}
			f.Start = t
		}
		if end != "" {
			t, ok := ParseTimestamp(end)
			if !ok {
				return PeriodFilter{}, invalid("end", fmt.Sprintf("unparseable date %q", end))
			}
			f.End = t
		}
	default:
		return PeriodFilter{}, invalid("period", fmt.Sprintf("unknown period %q", kind))
	}
	return f, nil
}

// Contains reports whether t falls inside the period as seen at now.
// A zero t (missing or unparseable timestamp) is always contained so that
// a bad date never hides a row from the reports.
func (f PeriodFilter) Contains(t, now time.Time) bool {
	if t.IsZero() {
		return true
	}
	switch f.Kind {
	case Last7Days:
		return !t.Before(now.Add(-7 * day))
	case Last30Days:
		return !t.Before(now.Add(-30 * day))
	case Last90Days:
		return !t.Before(now.Add(-90 * day))
	case LastYear:
		return !t.Before(now.AddDate(-1, 0, 0))
	case Custom:
		if f.Start.IsZero() || f.End.IsZero() {
			return true
		}
		return !t.Before(f.Start) && !t.After(endOfDay(f.End))
	}
	return true
}

// FilterByPeriod lazily yields the entries inside the period. The sequence
// can be ranged over any number of times with the same result.
func FilterByPeriod(entries []Entry, f PeriodFilter, now time.Time) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range entries {
			if !f.Contains(e.OccurredAt, now) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339, ISO date-time without zone, or a bare date.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortEntries orders entries oldest first, ties broken by Seq.
func SortEntries(entries []Entry) {
	slices.SortStableFunc(entries, compareEntries)
}

// SortNewestFirst is the display order of history tables.
func SortNewestFirst(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int { return compareEntries(b, a) })
}

func compareEntries(a, b Entry) int {
	if c := a.OccurredAt.Compare(b.OccurredAt); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
