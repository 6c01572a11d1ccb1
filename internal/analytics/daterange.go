package analytics

import (
	"fmt"
	"strings"
	"time"

	apperr "github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/errors"
)

const dateLayout = "2006-01-02"

// DefaultMaxRangeDays bounds the span of a DateRange built by NewDateRange.
const DefaultMaxRangeDays = 3660

// Boundary selects how the end of a DateRange treats orders placed on the
// end date itself.
type Boundary int

const (
	// BoundaryDay includes every order whose calendar day is on or before
	// the end date.
	BoundaryDay Boundary = iota
	// BoundaryMidnight includes orders up to and including 00:00:00 of the
	// end date only.
	BoundaryMidnight
)

func (b Boundary) String() string {
	switch b {
	case BoundaryDay:
		return "day"
	case BoundaryMidnight:
		return "midnight"
	default:
		return "unknown"
	}
}

// ParseBoundary maps a config value to a Boundary.
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day":
		return BoundaryDay, nil
	case "midnight":
		return BoundaryMidnight, nil
	default:
		return BoundaryDay, fmt.Errorf("unknown end boundary %q", s)
	}
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start    time.Time
	End      time.Time
	Boundary Boundary
}

// ParseDate parses a YYYY-MM-DD calendar date. The error is an invalid-input
// AppError naming the parameter.
func ParseDate(param, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperr.InvalidInput("%s is required (YYYY-MM-DD)", param)
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperr.InvalidInput("%s %q is not a valid date (YYYY-MM-DD)", param, value)
	}
	return t, nil
}

// NewDateRange parses start and end dates, allowing at most
// DefaultMaxRangeDays days.
func NewDateRange(start, end string, boundary Boundary) (DateRange, error) {
	return NewBoundedDateRange(start, end, boundary, DefaultMaxRangeDays)
}

// NewBoundedDateRange parses start and end dates and rejects ranges spanning
// more than maxDays calendar days. maxDays <= 0 disables the check. A range
// whose end precedes its start is always accepted and is empty.
func NewBoundedDateRange(start, end string, boundary Boundary, maxDays int) (DateRange, error) {
	s, err := ParseDate("start", start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate("end", end)
	if err != nil {
		return DateRange{}, err
	}
	rng := DateRange{Start: s, End: e, Boundary: boundary}
	if maxDays > 0 && rng.span() > int64(maxDays) {
		return DateRange{}, apperr.InvalidInput("date range spans %d days, at most %d allowed", rng.span(), maxDays)
	}
	return rng, nil
}

// span is the number of calendar days in the range, 0 when End precedes
// Start. Parsed dates are UTC midnights so whole-day Unix arithmetic is exact.
func (r DateRange) span() int64 {
	if r.End.Before(r.Start) {
		return 0
	}
	return (r.End.Unix()-r.Start.Unix())/86400 + 1
}

// Contains reports whether ts falls inside the range. This is the only place
// the end-of-range rule is decided.
func (r DateRange) Contains(ts Timestamp) bool {
	if ts.Before(r.Start) {
		return false
	}
	switch r.Boundary {
	case BoundaryMidnight:
		return !ts.After(r.End)
	default:
		return !ts.Midnight().After(r.End)
	}
}

// Days lists every calendar day from Start to End inclusive, ascending. It is
// empty when End precedes Start.
func (r DateRange) Days() []string {
	if r.End.Before(r.Start) {
		return []string{}
	}
	days := make([]string, 0, r.span())
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(dateLayout))
	}
	return days
}
