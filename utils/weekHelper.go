package utils

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// MondayOf returns the Monday of the ISO week containing date.
func MondayOf(date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	wd := int(d.Weekday())
	if wd == 0 {
		// Sunday belongs to the week that started six days earlier
		return d.AddDate(0, 0, -6)
	}
	return d.AddDate(0, 0, -(wd - 1))
}

// SundayOf returns the Sunday closing the ISO week containing date.
func SundayOf(date time.Time) time.Time {
	return MondayOf(date).AddDate(0, 0, 6)
}

// WeekKeyFor returns the week key (its Monday, "2006-01-02") of the week
// containing date.
func WeekKeyFor(date time.Time) string {
	return MondayOf(date).Format(DateLayout)
}

// MonthKeyFor returns the month key ("2006-01") of date's calendar month.
func MonthKeyFor(date time.Time) string {
	return date.Format(MonthLayout)
}

// MonthKeyForWeek returns the month key of the month the week belongs to,
// which is the month containing its Monday.
func MonthKeyForWeek(weekKey string) (string, error) {
	monday, err := ParseWeekKey(weekKey)
	if err != nil {
		return "", err
	}
	return MonthKeyFor(monday), nil
}

// ParseWeekKey parses a week key and checks it really is a Monday.
func ParseWeekKey(weekKey string) (time.Time, error) {
	t, err := time.Parse(DateLayout, weekKey)
	if err != nil {
		return time.Time{}, errors.New("invalid week key: " + weekKey)
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, errors.New("week key is not a monday: " + weekKey)
	}
	return t, nil
}

// ParseMonthKey parses a month key into the first day of that month.
func ParseMonthKey(monthKey string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, monthKey)
	if err != nil {
		return time.Time{}, errors.New("invalid month key: " + monthKey)
	}
	return t, nil
}

// MonthRange returns the first and last day of the month key.
func MonthRange(monthKey string) (time.Time, time.Time, error) {
	first, err := ParseMonthKey(monthKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last := first.AddDate(0, 1, -1)
	return first, last, nil
}

// DaysInMonth returns the number of days of the month containing date.
func DaysInMonth(date time.Time) int {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

// WeekOverlapsMonth reports whether the week shares at least one day with
// the month: its Sunday is on or after the first of the month and its
// Monday is on or before the last.
func WeekOverlapsMonth(weekKey string, monthKey string) (bool, error) {
	monday, err := ParseWeekKey(weekKey)
	if err != nil {
		return false, err
	}
	first, last, err := MonthRange(monthKey)
	if err != nil {
		return false, err
	}
	sunday := monday.AddDate(0, 0, 6)
	return !sunday.Before(first) && !monday.After(last), nil
}

// WeeksBelongingToMonth returns the week keys of every week whose Monday
// falls inside the month, ascending. Always four or five weeks.
func WeeksBelongingToMonth(monthKey string) ([]string, error) {
	first, last, err := MonthRange(monthKey)
	if err != nil {
		return nil, err
	}
	monday := MondayOf(first)
	if monday.Before(first) {
		monday = monday.AddDate(0, 0, 7)
	}
	var weeks []string
	for !monday.After(last) {
		weeks = append(weeks, monday.Format(DateLayout))
		monday = monday.AddDate(0, 0, 7)
	}
	return weeks, nil
}

// WeeksCountInMonth returns how many weeks belong to the month.
func WeeksCountInMonth(monthKey string) (int, error) {
	weeks, err := WeeksBelongingToMonth(monthKey)
	if err != nil {
		return 0, err
	}
	return len(weeks), nil
}

// WeeksOverlappingRange returns the week keys of every week overlapping
// [from, to], ascending.
func WeeksOverlappingRange(from, to time.Time) []string {
	monday := MondayOf(from)
	end := MondayOf(to)
	var weeks []string
	for !monday.After(end) {
		weeks = append(weeks, monday.Format(DateLayout))
		monday = monday.AddDate(0, 0, 7)
	}
	return weeks
}

// WeeksOverlappingMonth returns the week keys of every week sharing at
// least one day with the month, ascending. A superset of
// WeeksBelongingToMonth: boundary weeks whose Monday falls in the
// neighboring month are included.
func WeeksOverlappingMonth(monthKey string) ([]string, error) {
	first, last, err := MonthRange(monthKey)
	if err != nil {
		return nil, err
	}
	return WeeksOverlappingRange(first, last), nil
}

// PreviousMonthKey returns the month key immediately before monthKey.
func PreviousMonthKey(monthKey string) (string, error) {
	first, err := ParseMonthKey(monthKey)
	if err != nil {
		return "", err
	}
	return first.AddDate(0, -1, 0).Format(MonthLayout), nil
}

// PreviousWeekKey returns the week key immediately before weekKey.
func PreviousWeekKey(weekKey string) (string, error) {
	monday, err := ParseWeekKey(weekKey)
	if err != nil {
		return "", err
	}
	return monday.AddDate(0, 0, -7).Format(DateLayout), nil
}

// DistributeMonthlySalary splits a monthly amount across the month's weeks.
// Each week receives amount/len(weeks) rounded to two places after an
// intermediate four-place rounding; the leftover cent(s) go to the first
// week so the parts always sum exactly to amount.
func DistributeMonthlySalary(amount decimal.Decimal, weekKeys []string) map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal, len(weekKeys))
	if len(weekKeys) == 0 {
		return result
	}
	perWeek := amount.DivRound(decimal.NewFromInt(int64(len(weekKeys))), 4).Round(2)
	total := decimal.Zero
	for _, wk := range weekKeys {
		result[wk] = perWeek
		total = total.Add(perWeek)
	}
	residue := amount.Sub(total)
	if !residue.IsZero() {
		result[weekKeys[0]] = result[weekKeys[0]].Add(residue)
	}
	return result
}
