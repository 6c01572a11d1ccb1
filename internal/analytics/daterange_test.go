package analytics

import (
	"errors"
	"slices"
	"testing"

	apperr "github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/errors"
)

func TestNewDateRangeInvalid(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{"empty start", "", "2025-06-22"},
		{"empty end", "2025-06-22", ""},
		{"garbage", "yesterday", "2025-06-22"},
		{"bad month", "2025-13-01", "2025-06-22"},
		{"timestamp", "2025-06-22T10:00:00", "2025-06-22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDateRange(tt.start, tt.end, BoundaryDay)
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestDateRangeDays(t *testing.T) {
	rng := mustRange(t, "2024-02-27", "2024-03-01", BoundaryDay)
	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}
	if got := rng.Days(); !slices.Equal(got, want) {
		t.Errorf("Days() = %v, want %v", got, want)
	}
	single := mustRange(t, "2025-01-01", "2025-01-01", BoundaryDay)
	if got := single.Days(); !slices.Equal(got, []string{"2025-01-01"}) {
		t.Errorf("single day = %v", got)
	}
}

func TestDateRangeContains(t *testing.T) {
	day := mustRange(t, "2025-06-22", "2025-06-23", BoundaryDay)
	midnight := mustRange(t, "2025-06-22", "2025-06-23", BoundaryMidnight)

	tests := []struct {
		at           string
		wantDay      bool
		wantMidnight bool
	}{
		{"2025-06-21T23:59:59", false, false},
		{"2025-06-22T00:00:00", true, true},
		{"2025-06-22T15:00:00", true, true},
		{"2025-06-23T00:00:00", true, true},
		{"2025-06-23T00:00:01", true, false},
		{"2025-06-23T23:59:59", true, false},
		{"2025-06-24T00:00:00", false, false},
	}
	for _, tt := range tests {
		v := ts(t, tt.at)
		if got := day.Contains(v); got != tt.wantDay {
			t.Errorf("day.Contains(%s) = %v, want %v", tt.at, got, tt.wantDay)
		}
		if got := midnight.Contains(v); got != tt.wantMidnight {
			t.Errorf("midnight.Contains(%s) = %v, want %v", tt.at, got, tt.wantMidnight)
		}
	}
}

func TestParseBoundary(t *testing.T) {
	if b, err := ParseBoundary(""); err != nil || b != BoundaryDay {
		t.Errorf("ParseBoundary(\"\") = %v, %v", b, err)
	}
	if b, err := ParseBoundary("Midnight"); err != nil || b != BoundaryMidnight {
		t.Errorf("ParseBoundary(Midnight) = %v, %v", b, err)
	}
	if _, err := ParseBoundary("noon"); err == nil {
		t.Error("expected error for unknown boundary")
	}
}

func TestNewBoundedDateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		maxDays    int
		wantErr    bool
	}{
		{"single day at limit 1", "2025-06-22", "2025-06-22", 1, false},
		{"exactly the limit", "2025-01-01", "2025-01-31", 31, false},
		{"one day over", "2025-01-01", "2025-02-01", 31, true},
		{"leap year", "2024-01-01", "2024-12-31", 366, false},
		{"whole calendar", "0001-01-01", "9999-12-31", DefaultMaxRangeDays, true},
		{"end before start", "9999-12-31", "0001-01-01", 1, false},
		{"limit disabled", "2000-01-01", "2030-01-01", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBoundedDateRange(tt.start, tt.end, BoundaryDay, tt.maxDays)
			if tt.wantErr && !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewDateRangeAppliesDefaultLimit(t *testing.T) {
	if _, err := NewDateRange("0001-01-01", "9999-12-31", BoundaryDay); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
