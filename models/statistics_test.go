package models

import (
	"testing"
	"time"

	"github.com/msahtani/storeyes-backend/utils"
	"github.com/shopspring/decimal"
)

func TestPeriodWindow(t *testing.T) {
	cases := []struct {
		name      string
		period    StatisticsPeriod
		date      string
		start     string
		end       string
		prevStart string
		prevEnd   string
	}{
		{"day", StatisticsPeriodDay, "2025-03-15", "2025-03-15", "2025-03-15", "2025-03-14", "2025-03-14"},
		{"day at month start", StatisticsPeriodDay, "2025-03-01", "2025-03-01", "2025-03-01", "2025-02-28", "2025-02-28"},
		{"week from midweek date", StatisticsPeriodWeek, "2025-03-12", "2025-03-10", "2025-03-16", "2025-03-03", "2025-03-09"},
		{"week from sunday", StatisticsPeriodWeek, "2025-03-16", "2025-03-10", "2025-03-16", "2025-03-03", "2025-03-09"},
		{"month", StatisticsPeriodMonth, "2025-03", "2025-03-01", "2025-03-31", "2025-02-01", "2025-02-28"},
		{"month over year boundary", StatisticsPeriodMonth, "2025-01", "2025-01-01", "2025-01-31", "2024-12-01", "2024-12-31"},
	}
	for _, tc := range cases {
		start, end, prevStart, prevEnd, err := PeriodWindow(tc.period, tc.date)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		got := []string{
			start.Format(utils.DateLayout),
			end.Format(utils.DateLayout),
			prevStart.Format(utils.DateLayout),
			prevEnd.Format(utils.DateLayout),
		}
		want := []string{tc.start, tc.end, tc.prevStart, tc.prevEnd}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s: window[%d] = %s, want %s", tc.name, i, got[i], want[i])
			}
		}
	}
}

func TestPeriodWindowInvalid(t *testing.T) {
	if _, _, _, _, err := PeriodWindow(StatisticsPeriodDay, "not-a-date"); err == nil {
		t.Error("expected error for invalid day date")
	}
	if _, _, _, _, err := PeriodWindow(StatisticsPeriodMonth, "2025-13"); err == nil {
		t.Error("expected error for invalid month key")
	}
	if _, _, _, _, err := PeriodWindow(StatisticsPeriod("year"), "2025"); err == nil {
		t.Error("expected error for unknown period")
	}
}

func TestRevenueEvolution(t *testing.T) {
	cases := []struct {
		current  string
		previous string
		want     string
	}{
		{"120", "100", "20"},
		{"80", "100", "-20"},
		{"100", "100", "0"},
		{"100", "0", "0"},
		{"100", "3", "3233.33"},
		{"0", "50", "-100"},
	}
	for _, tc := range cases {
		got := RevenueEvolution(decimal.RequireFromString(tc.current), decimal.RequireFromString(tc.previous))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("RevenueEvolution(%s, %s) = %s, want %s", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestStatusThresholds(t *testing.T) {
	chargesCases := []struct {
		pct  string
		want StatusLevel
	}{
		{"80", StatusLevelCritical},
		{"75.01", StatusLevelCritical},
		{"75", StatusLevelMedium},
		{"70", StatusLevelMedium},
		{"66", StatusLevelGood},
		{"10", StatusLevelGood},
	}
	for _, tc := range chargesCases {
		if got := ChargesStatus(decimal.RequireFromString(tc.pct)); got != tc.want {
			t.Errorf("ChargesStatus(%s) = %s, want %s", tc.pct, got, tc.want)
		}
	}

	profitCases := []struct {
		pct  string
		want StatusLevel
	}{
		{"40", StatusLevelGood},
		{"33", StatusLevelGood},
		{"32.99", StatusLevelMedium},
		{"15", StatusLevelMedium},
		{"14.99", StatusLevelCritical},
		{"-5", StatusLevelCritical},
	}
	for _, tc := range profitCases {
		if got := ProfitStatus(decimal.RequireFromString(tc.pct)); got != tc.want {
			t.Errorf("ProfitStatus(%s) = %s, want %s", tc.pct, got, tc.want)
		}
	}

	itemCases := []struct {
		pct  string
		want StatusLevel
	}{
		{"25", StatusLevelCritical},
		{"20", StatusLevelMedium},
		{"15", StatusLevelMedium},
		{"10", StatusLevelGood},
		{"0", StatusLevelGood},
	}
	for _, tc := range itemCases {
		if got := ChargeItemStatus(decimal.RequireFromString(tc.pct)); got != tc.want {
			t.Errorf("ChargeItemStatus(%s) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestChargeDisplayName(t *testing.T) {
	cases := map[ChargeCategory]string{
		ChargeCategoryPersonnel:   "Personnel",
		ChargeCategoryWater:       "Water",
		ChargeCategoryElectricity: "Electricity",
		ChargeCategoryWifi:        "WiFi",
	}
	for category, want := range cases {
		if got := chargeDisplayName(category); got != want {
			t.Errorf("chargeDisplayName(%s) = %s, want %s", category, got, want)
		}
	}
}

func TestEffectiveAmountProration(t *testing.T) {
	// a 310 monthly charge over March spreads to exactly 10 per day
	amount := decimal.RequireFromString("310")
	daysInMarch := decimal.NewFromInt(int64(utils.DaysInMonth(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))))
	if got := amount.DivRound(daysInMarch, 2); !got.Equal(decimal.RequireFromString("10")) {
		t.Errorf("310/31 = %s, want 10", got)
	}

	// five-week month prorates monthly charges to a fifth per week
	weeks, err := utils.WeeksCountInMonth("2025-03")
	if err != nil {
		t.Fatal(err)
	}
	if weeks != 5 {
		t.Fatalf("2025-03 weeks = %d, want 5", weeks)
	}
	perWeek := decimal.RequireFromString("1000").DivRound(decimal.NewFromInt(int64(weeks)), 2)
	if !perWeek.Equal(decimal.RequireFromString("200")) {
		t.Errorf("1000/5 = %s, want 200", perWeek)
	}
}
