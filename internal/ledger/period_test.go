package ledger

import (
	"errors"
	"slices"
	"testing"
	"time"
)

var now = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func ids(seq func(func(Entry) bool)) []string {
	var out []string
	for e := range seq {
		out = append(out, e.ID)
	}
	return out
}

func TestFilterByPeriod_Last7DaysBoundary(t *testing.T) {
	entries := []Entry{
		{ID: "too-old", OccurredAt: now.Add(-7*day - time.Second)},
		{ID: "boundary", OccurredAt: now.Add(-7 * day)},
		{ID: "recent", OccurredAt: now.Add(-time.Hour)},
		{ID: "future", OccurredAt: now.Add(48 * time.Hour)},
	}

	got := ids(FilterByPeriod(entries, PeriodFilter{Kind: Last7Days}, now))
	want := []string{"boundary", "recent", "future"}
	if !slices.Equal(got, want) {
		t.Errorf("FilterByPeriod() = %v, want %v", got, want)
	}
}

func TestFilterByPeriod_Kinds(t *testing.T) {
	entries := []Entry{
		{ID: "d20", OccurredAt: now.AddDate(0, 0, -20)},
		{ID: "d60", OccurredAt: now.AddDate(0, 0, -60)},
		{ID: "d200", OccurredAt: now.AddDate(0, 0, -200)},
		{ID: "d400", OccurredAt: now.AddDate(0, 0, -400)},
	}

	tests := []struct {
		kind PeriodKind
		want []string
	}{
		{Last30Days, []string{"d20"}},
		{Last90Days, []string{"d20", "d60"}},
		{LastYear, []string{"d20", "d60", "d200"}},
		{AllTime, []string{"d20", "d60", "d200", "d400"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := ids(FilterByPeriod(entries, PeriodFilter{Kind: tt.kind}, now))
			if !slices.Equal(got, tt.want) {
				t.Errorf("FilterByPeriod(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestFilterByPeriod_CustomEndOfDay(t *testing.T) {
	f := PeriodFilter{
		Kind:  Custom,
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	}
	entries := []Entry{
		{ID: "before", OccurredAt: time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)},
		{ID: "start", OccurredAt: f.Start},
		{ID: "late-on-end-day", OccurredAt: time.Date(2024, 6, 10, 23, 59, 59, 999_000_000, time.UTC)},
		{ID: "next-day", OccurredAt: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)},
	}

	got := ids(FilterByPeriod(entries, f, now))
	want := []string{"start", "late-on-end-day"}
	if !slices.Equal(got, want) {
		t.Errorf("FilterByPeriod(custom) = %v, want %v", got, want)
	}
}

func TestFilterByPeriod_CustomMissingBoundReturnsAll(t *testing.T) {
	entries := []Entry{
		{ID: "a", OccurredAt: now.AddDate(-3, 0, 0)},
		{ID: "b", OccurredAt: now},
	}
	f := PeriodFilter{Kind: Custom, Start: now.AddDate(0, 0, -1)}

	got := ids(FilterByPeriod(entries, f, now))
	if len(got) != 2 {
		t.Errorf("FilterByPeriod(custom, no end) = %v, want all entries", got)
	}
}

func TestFilterByPeriod_ZeroTimestampIncluded(t *testing.T) {
	entries := []Entry{{ID: "undated"}, {ID: "old", OccurredAt: now.AddDate(-2, 0, 0)}}

	got := ids(FilterByPeriod(entries, PeriodFilter{Kind: Last7Days}, now))
	if !slices.Equal(got, []string{"undated"}) {
		t.Errorf("FilterByPeriod() = %v, want [undated]", got)
	}
}

func TestFilterByPeriod_IdempotentAndRestartable(t *testing.T) {
	entries := []Entry{
		{ID: "1", OccurredAt: now.AddDate(0, 0, -1)},
		{ID: "2", OccurredAt: now.AddDate(0, 0, -45)},
		{ID: "3"},
		{ID: "4", OccurredAt: now.AddDate(0, 0, -89)},
	}
	f := PeriodFilter{Kind: Last90Days}

	seq := FilterByPeriod(entries, f, now)
	first := ids(seq)
	second := ids(seq)
	if !slices.Equal(first, second) {
		t.Errorf("second pass = %v, want %v", second, first)
	}

	once := slices.Collect(seq)
	twice := ids(FilterByPeriod(once, f, now))
	if !slices.Equal(first, twice) {
		t.Errorf("filter(filter(x)) = %v, want %v", twice, first)
	}
}

func TestParsePeriod(t *testing.T) {
	f, err := ParsePeriod("custom", "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("ParsePeriod() error = %v", err)
	}
	if f.Kind != Custom || f.Start.Day() != 1 || f.End.Day() != 31 {
		t.Errorf("ParsePeriod() = %+v", f)
	}

	f, err = ParsePeriod("", "", "")
	if err != nil || f.Kind != AllTime {
		t.Errorf("ParsePeriod(\"\") = %+v, %v, want AllTime", f, err)
	}

	if _, err := ParsePeriod("fortnight", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParsePeriod(fortnight) error = %v, want ErrInvalidInput", err)
	}
	if _, err := ParsePeriod("custom", "01/02/2024", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParsePeriod(custom, bad start) error = %v, want ErrInvalidInput", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-06-01", true},
		{"2024-06-01T08:00:00", true},
		{"2024-06-01T08:00:00+05:30", true},
		{"2024-06-01 08:00:00", true},
		{"", false},
		{"yesterday", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, ok := ParseTimestamp(tt.in)
			if ok != tt.ok {
				t.Errorf("ParseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
		})
	}
}

func TestSortNewestFirst_TiesBySeq(t *testing.T) {
	at := now.Add(-time.Hour)
	entries := []Entry{
		{ID: "a", OccurredAt: at, Seq: 1},
		{ID: "c", OccurredAt: now, Seq: 3},
		{ID: "b", OccurredAt: at, Seq: 2},
	}
	SortNewestFirst(entries)

	got := []string{entries[0].ID, entries[1].ID, entries[2].ID}
	if !slices.Equal(got, []string{"c", "b", "a"}) {
		t.Errorf("SortNewestFirst() = %v, want [c b a]", got)
	}

	SortEntries(entries)
	got = []string{entries[0].ID, entries[1].ID, entries[2].ID}
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("SortEntries() = %v, want [a b c]", got)
	}
}
