package models

import (
	"testing"

	"github.com/msahtani/storeyes-backend/utils"
	"github.com/shopspring/decimal"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func personnelInput(salary string) []*NewPersonnelEmployee {
	return []*NewPersonnelEmployee{
		{
			Employee: NewEmployee{Name: "Alice", Type: EmployeeTypeServer},
			Salary:   decimal.RequireFromString(salary),
		},
	}
}

func TestNewFixedChargeValidate(t *testing.T) {
	cases := []struct {
		name    string
		input   NewFixedCharge
		wantErr bool
	}{
		{
			name: "monthly utility",
			input: NewFixedCharge{
				Category: ChargeCategoryWater,
				Period:   ChargePeriodMonth,
				MonthKey: "2025-03",
				Amount:   decPtr("120"),
			},
		},
		{
			name: "utility on week period rejected",
			input: NewFixedCharge{
				Category: ChargeCategoryElectricity,
				Period:   ChargePeriodWeek,
				MonthKey: "2025-03",
				WeekKey:  strPtr("2025-03-10"),
				Amount:   decPtr("50"),
			},
			wantErr: true,
		},
		{
			name: "utility without amount rejected",
			input: NewFixedCharge{
				Category: ChargeCategoryWifi,
				Period:   ChargePeriodMonth,
				MonthKey: "2025-03",
			},
			wantErr: true,
		},
		{
			name: "utility with zero amount rejected",
			input: NewFixedCharge{
				Category: ChargeCategoryWater,
				Period:   ChargePeriodMonth,
				MonthKey: "2025-03",
				Amount:   decPtr("0"),
			},
			wantErr: true,
		},
		{
			name: "weekly personnel",
			input: NewFixedCharge{
				Category:  ChargeCategoryPersonnel,
				Period:    ChargePeriodWeek,
				MonthKey:  "2025-03",
				WeekKey:   strPtr("2025-03-10"),
				Employees: personnelInput("400"),
			},
		},
		{
			name: "weekly charge without week key rejected",
			input: NewFixedCharge{
				Category:  ChargeCategoryPersonnel,
				Period:    ChargePeriodWeek,
				MonthKey:  "2025-03",
				Employees: personnelInput("400"),
			},
			wantErr: true,
		},
		{
			name: "week key must be a monday",
			input: NewFixedCharge{
				Category:  ChargeCategoryPersonnel,
				Period:    ChargePeriodWeek,
				MonthKey:  "2025-03",
				WeekKey:   strPtr("2025-03-11"),
				Employees: personnelInput("400"),
			},
			wantErr: true,
		},
		{
			name: "week outside month rejected",
			input: NewFixedCharge{
				Category:  ChargeCategoryPersonnel,
				Period:    ChargePeriodWeek,
				MonthKey:  "2025-03",
				WeekKey:   strPtr("2025-04-07"),
				Employees: personnelInput("400"),
			},
			wantErr: true,
		},
		{
			name: "week overlapping month tail accepted",
			input: NewFixedCharge{
				Category:  ChargeCategoryPersonnel,
				Period:    ChargePeriodWeek,
				MonthKey:  "2025-04",
				WeekKey:   strPtr("2025-04-28"),
				Employees: personnelInput("400"),
			},
		},
		{
			name: "personnel without employees rejected",
			input: NewFixedCharge{
				Category: ChargeCategoryPersonnel,
				Period:   ChargePeriodMonth,
				MonthKey: "2025-03",
			},
			wantErr: true,
		},
		{
			name: "invalid category",
			input: NewFixedCharge{
				Category: ChargeCategory("RENT"),
				Period:   ChargePeriodMonth,
				MonthKey: "2025-03",
				Amount:   decPtr("100"),
			},
			wantErr: true,
		},
		{
			name: "invalid month key",
			input: NewFixedCharge{
				Category: ChargeCategoryWater,
				Period:   ChargePeriodMonth,
				MonthKey: "2025-3",
				Amount:   decPtr("100"),
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		err := tc.input.validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if tc.wantErr && err != nil && !utils.IsValidationError(err) {
			t.Errorf("%s: error is not a validation error: %v", tc.name, err)
		}
	}
}

func TestFixedChargeValidateMergedState(t *testing.T) {
	// The same rules apply to the merged state during update, so edits
	// cannot produce a charge that create would have rejected.
	cases := []struct {
		name    string
		charge  FixedCharge
		wantErr bool
	}{
		{
			name: "utility switched to week period rejected",
			charge: FixedCharge{
				Category: ChargeCategoryWater,
				Period:   ChargePeriodWeek,
				MonthKey: "2025-03",
				WeekKey:  strPtr("2025-03-10"),
				Amount:   decimal.RequireFromString("50"),
			},
			wantErr: true,
		},
		{
			name: "utility amount edited to zero rejected",
			charge: FixedCharge{
				Category: ChargeCategoryElectricity,
				Period:   ChargePeriodMonth,
				MonthKey: "2025-03",
			},
			wantErr: true,
		},
		{
			name: "new month key no longer overlapping week rejected",
			charge: FixedCharge{
				Category: ChargeCategoryPersonnel,
				Period:   ChargePeriodWeek,
				MonthKey: "2025-05",
				WeekKey:  strPtr("2025-03-10"),
			},
			wantErr: true,
		},
		{
			name: "consistent personnel week charge",
			charge: FixedCharge{
				Category: ChargeCategoryPersonnel,
				Period:   ChargePeriodWeek,
				MonthKey: "2025-03",
				WeekKey:  strPtr("2025-03-10"),
			},
		},
	}

	for _, tc := range cases {
		err := tc.charge.validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if tc.wantErr && err != nil && !utils.IsValidationError(err) {
			t.Errorf("%s: error is not a validation error: %v", tc.name, err)
		}
	}
}

func TestTrendBetween(t *testing.T) {
	cases := []struct {
		name       string
		current    string
		previous   string
		direction  TrendDirection
		percentage string
		abnormal   bool
	}{
		{"thirty percent up is abnormal", "130", "100", TrendDirectionUp, "30", true},
		{"five percent up is normal", "105", "100", TrendDirectionUp, "5", false},
		{"exactly twenty percent is normal", "120", "100", TrendDirectionUp, "20", false},
		{"decrease is never abnormal", "70", "100", TrendDirectionDown, "-30", false},
		{"unchanged", "100", "100", TrendDirectionStable, "0", false},
		{"zero previous keeps direction, zero percentage", "50", "0", TrendDirectionUp, "0", false},
		{"rounding", "100", "3", TrendDirectionUp, "3233.33", true},
	}
	for _, tc := range cases {
		direction, percentage, abnormal := trendBetween(
			decimal.RequireFromString(tc.current), decimal.RequireFromString(tc.previous))
		if direction != tc.direction {
			t.Errorf("%s: direction = %s, want %s", tc.name, direction, tc.direction)
		}
		if !percentage.Equal(decimal.RequireFromString(tc.percentage)) {
			t.Errorf("%s: percentage = %s, want %s", tc.name, percentage, tc.percentage)
		}
		if abnormal != tc.abnormal {
			t.Errorf("%s: abnormal = %v, want %v", tc.name, abnormal, tc.abnormal)
		}
	}
}

func TestParseChargeCategory(t *testing.T) {
	got, err := ParseChargeCategory("personnel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ChargeCategoryPersonnel {
		t.Errorf("ParseChargeCategory(personnel) = %s", got)
	}
	if _, err := ParseChargeCategory("rent"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestEnumValidity(t *testing.T) {
	if !ChargePeriodWeek.Valid() || !ChargePeriodMonth.Valid() {
		t.Error("expected WEEK and MONTH to be valid periods")
	}
	if ChargePeriod("DAY").Valid() {
		t.Error("DAY is not a charge period")
	}
	if !EmployeeTypeServer.Valid() || EmployeeType("BARISTA").Valid() {
		t.Error("unexpected employee type validity")
	}
	if !StatisticsPeriodDay.Valid() || StatisticsPeriod("year").Valid() {
		t.Error("unexpected statistics period validity")
	}
}
