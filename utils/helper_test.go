package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name  string
		part  string
		total string
		want  string
	}{
		{"half", "50", "100", "50"},
		{"zero total", "50", "0", "0"},
		{"rounds to two places", "1", "3", "33.33"},
		{"over one hundred", "310", "100", "310"},
		{"negative part", "-25", "100", "-25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part := decimal.RequireFromString(tt.part)
			total := decimal.RequireFromString(tt.total)
			got := Percentage(part, total)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Percentage(%s, %s) = %s, want %s", tt.part, tt.total, got, tt.want)
			}
		})
	}
}

func TestDereferencePtr(t *testing.T) {
	s := "2025-03-10"
	if got := DereferencePtr(&s); got != "2025-03-10" {
		t.Errorf("DereferencePtr(&s) = %q", got)
	}
	if got := DereferencePtr[string](nil); got != "" {
		t.Errorf("DereferencePtr(nil) = %q, want empty", got)
	}
	if got := DereferencePtr(nil, "fallback"); got != "fallback" {
		t.Errorf("DereferencePtr(nil, fallback) = %q", got)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	want := []int{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("UniqueSlice = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("UniqueSlice[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestMonthLabels(t *testing.T) {
	if got := MonthLabel("2025-03"); got != "Mar" {
		t.Errorf("MonthLabel(2025-03) = %s", got)
	}
	if got := MonthYearLabel("2025-03"); got != "Mar 2025" {
		t.Errorf("MonthYearLabel(2025-03) = %s", got)
	}
	// invalid keys fall back to the raw input
	if got := MonthLabel("garbage"); got != "garbage" {
		t.Errorf("MonthLabel(garbage) = %s", got)
	}
}
