package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"monday stays", date(2025, time.March, 3), "2025-03-03"},
		{"wednesday", date(2025, time.March, 5), "2025-03-03"},
		{"saturday", date(2025, time.March, 8), "2025-03-03"},
		{"sunday goes back six days", date(2025, time.March, 9), "2025-03-03"},
		{"crosses month boundary", date(2025, time.April, 1), "2025-03-31"},
		{"crosses year boundary", date(2025, time.January, 1), "2024-12-30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MondayOf(tt.in).Format(DateLayout)
			if got != tt.want {
				t.Errorf("MondayOf(%s) = %s, want %s", tt.in.Format(DateLayout), got, tt.want)
			}
		})
	}
}

func TestMonthKeyForWeek(t *testing.T) {
	// week 2025-03-31 spans March and April; its Monday is in March
	got, err := MonthKeyForWeek("2025-03-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2025-03" {
		t.Errorf("MonthKeyForWeek(2025-03-31) = %s, want 2025-03", got)
	}

	if _, err := MonthKeyForWeek("2025-03-30"); err == nil {
		t.Error("expected error for non-monday week key")
	}
	if _, err := MonthKeyForWeek("not-a-date"); err == nil {
		t.Error("expected error for garbage week key")
	}
}

func TestWeekOverlapsMonth(t *testing.T) {
	tests := []struct {
		weekKey  string
		monthKey string
		want     bool
	}{
		// 2025-03-31 .. 2025-04-06 touches both months
		{"2025-03-31", "2025-03", true},
		{"2025-03-31", "2025-04", true},
		{"2025-03-31", "2025-05", false},
		{"2025-03-03", "2025-03", true},
		{"2025-03-03", "2025-02", false},
		// 2025-02-24 .. 2025-03-02 ends inside March
		{"2025-02-24", "2025-03", true},
	}
	for _, tt := range tests {
		got, err := WeekOverlapsMonth(tt.weekKey, tt.monthKey)
		if err != nil {
			t.Fatalf("WeekOverlapsMonth(%s, %s): %v", tt.weekKey, tt.monthKey, err)
		}
		if got != tt.want {
			t.Errorf("WeekOverlapsMonth(%s, %s) = %v, want %v", tt.weekKey, tt.monthKey, got, tt.want)
		}
	}
}

func TestWeeksBelongingToMonth(t *testing.T) {
	tests := []struct {
		monthKey string
		want     []string
	}{
		// March 2025: 1st is a Saturday, Mondays are 3, 10, 17, 24, 31
		{"2025-03", []string{"2025-03-03", "2025-03-10", "2025-03-17", "2025-03-24", "2025-03-31"}},
		// April 2025: Mondays are 7, 14, 21, 28 (the 31st of March owns the first week)
		{"2025-04", []string{"2025-04-07", "2025-04-14", "2025-04-21", "2025-04-28"}},
		// September 2025 starts on a Monday
		{"2025-09", []string{"2025-09-01", "2025-09-08", "2025-09-15", "2025-09-22", "2025-09-29"}},
	}
	for _, tt := range tests {
		got, err := WeeksBelongingToMonth(tt.monthKey)
		if err != nil {
			t.Fatalf("WeeksBelongingToMonth(%s): %v", tt.monthKey, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("WeeksBelongingToMonth(%s) = %v, want %v", tt.monthKey, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("WeeksBelongingToMonth(%s)[%d] = %s, want %s", tt.monthKey, i, got[i], tt.want[i])
			}
		}
	}
}

func TestWeeksBelongingToMonthCount(t *testing.T) {
	// every month of a couple of years yields 4 or 5 weeks
	for year := 2024; year <= 2026; year++ {
		for month := 1; month <= 12; month++ {
			key := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format(MonthLayout)
			weeks, err := WeeksBelongingToMonth(key)
			if err != nil {
				t.Fatalf("WeeksBelongingToMonth(%s): %v", key, err)
			}
			if len(weeks) != 4 && len(weeks) != 5 {
				t.Errorf("WeeksBelongingToMonth(%s) has %d weeks", key, len(weeks))
			}
			for _, wk := range weeks {
				mk, err := MonthKeyForWeek(wk)
				if err != nil {
					t.Fatalf("MonthKeyForWeek(%s): %v", wk, err)
				}
				if mk != key {
					t.Errorf("week %s belongs to %s, expected %s", wk, mk, key)
				}
			}
		}
	}
}

func TestDistributeMonthlySalary(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		weeks  []string
		want   map[string]string
	}{
		{
			name:   "even split over four weeks",
			amount: "2000",
			weeks:  []string{"2025-04-07", "2025-04-14", "2025-04-21", "2025-04-28"},
			want: map[string]string{
				"2025-04-07": "500", "2025-04-14": "500",
				"2025-04-21": "500", "2025-04-28": "500",
			},
		},
		{
			name:   "residue lands on the first week",
			amount: "1000",
			weeks:  []string{"2025-03-03", "2025-03-10", "2025-03-17"},
			want: map[string]string{
				"2025-03-03": "333.34", "2025-03-10": "333.33", "2025-03-17": "333.33",
			},
		},
		{
			name:   "five week month",
			amount: "1500",
			weeks:  []string{"2025-03-03", "2025-03-10", "2025-03-17", "2025-03-24", "2025-03-31"},
			want: map[string]string{
				"2025-03-03": "300", "2025-03-10": "300", "2025-03-17": "300",
				"2025-03-24": "300", "2025-03-31": "300",
			},
		},
		{
			name:   "cents amount",
			amount: "100.01",
			weeks:  []string{"2025-04-07", "2025-04-14", "2025-04-21", "2025-04-28"},
			want: map[string]string{
				"2025-04-07": "25.01", "2025-04-14": "25",
				"2025-04-21": "25", "2025-04-28": "25",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			got := DistributeMonthlySalary(amount, tt.weeks)
			total := decimal.Zero
			for wk, wantStr := range tt.want {
				want := decimal.RequireFromString(wantStr)
				if !got[wk].Equal(want) {
					t.Errorf("week %s = %s, want %s", wk, got[wk], want)
				}
			}
			for _, v := range got {
				total = total.Add(v)
			}
			if !total.Equal(amount) {
				t.Errorf("parts sum to %s, want %s", total, amount)
			}
		})
	}
}

func TestDistributeMonthlySalarySumsExactly(t *testing.T) {
	weeks4 := []string{"2025-04-07", "2025-04-14", "2025-04-21", "2025-04-28"}
	weeks5 := []string{"2025-03-03", "2025-03-10", "2025-03-17", "2025-03-24", "2025-03-31"}
	amounts := []string{"0.01", "0.07", "1", "99.99", "1234.56", "310", "1000000.01"}
	for _, a := range amounts {
		amount := decimal.RequireFromString(a)
		for _, weeks := range [][]string{weeks4, weeks5} {
			parts := DistributeMonthlySalary(amount, weeks)
			total := decimal.Zero
			for _, v := range parts {
				total = total.Add(v)
			}
			if !total.Equal(amount) {
				t.Errorf("amount %s over %d weeks sums to %s", a, len(weeks), total)
			}
		}
	}
}

func TestMonthRangeAndDaysInMonth(t *testing.T) {
	first, last, err := MonthRange("2025-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Format(DateLayout) != "2025-02-01" || last.Format(DateLayout) != "2025-02-28" {
		t.Errorf("MonthRange(2025-02) = %s..%s", first.Format(DateLayout), last.Format(DateLayout))
	}
	if got := DaysInMonth(date(2024, time.February, 10)); got != 29 {
		t.Errorf("DaysInMonth(feb 2024) = %d, want 29", got)
	}
	if got := DaysInMonth(date(2025, time.March, 31)); got != 31 {
		t.Errorf("DaysInMonth(mar 2025) = %d, want 31", got)
	}
}

func TestPreviousKeys(t *testing.T) {
	if got, _ := PreviousMonthKey("2025-01"); got != "2024-12" {
		t.Errorf("PreviousMonthKey(2025-01) = %s", got)
	}
	if got, _ := PreviousWeekKey("2025-03-03"); got != "2025-02-24" {
		t.Errorf("PreviousWeekKey(2025-03-03) = %s", got)
	}
}

func TestWeeksOverlappingMonth(t *testing.T) {
	// April 2025 starts on a Tuesday: the week of March 31 overlaps the
	// month without belonging to it.
	got, err := WeeksOverlappingMonth("2025-04")
	if err != nil {
		t.Fatalf("WeeksOverlappingMonth(2025-04): %v", err)
	}
	want := []string{"2025-03-31", "2025-04-07", "2025-04-14", "2025-04-21", "2025-04-28"}
	if len(got) != len(want) {
		t.Fatalf("WeeksOverlappingMonth(2025-04) = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("WeeksOverlappingMonth(2025-04)[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if _, err := WeeksOverlappingMonth("2025-4"); err == nil {
		t.Error("expected error for malformed month key")
	}
}

func TestWeeksOverlappingRange(t *testing.T) {
	got := WeeksOverlappingRange(date(2025, time.March, 5), date(2025, time.March, 18))
	want := []string{"2025-03-03", "2025-03-10", "2025-03-17"}
	if len(got) != len(want) {
		t.Fatalf("WeeksOverlappingRange = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("WeeksOverlappingRange[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
