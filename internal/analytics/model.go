// Package analytics computes the restaurant-order reports served by the API:
// the filtered, sorted and paginated restaurant directory, per-restaurant daily
// order metrics and the revenue ranking. All computations are pure functions
// over immutable collections; Service binds them to a Source.
package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Restaurant is a directory entry. Missing JSON fields decode as "".
type Restaurant struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Cuisine  string `json:"cuisine"`
}

// Order is a single order. RestaurantID is not required to reference a known
// restaurant and OrderAmount is in minor currency units, taken as-is.
type Order struct {
	RestaurantID int64     `json:"restaurant_id"`
	OrderTime    Timestamp `json:"order_time"`
	OrderAmount  int64     `json:"order_amount"`
}

// Timestamp is an order time in the wall clock it was recorded in. Any zone
// offset present in the source is dropped after parsing, so hours and calendar
// days never shift.
type Timestamp struct {
	time.Time
}

const timestampLayout = "2006-01-02T15:04:05"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	dateLayout,
}

// ParseTimestamp parses an ISO-8601 date-time, with or without a zone offset.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("parsing timestamp %q: unsupported format", s)
}

// NewTimestamp keeps the wall-clock reading of t and discards its location.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
}

// DayKey returns the calendar-day bucket key (YYYY-MM-DD).
func (t Timestamp) DayKey() string {
	return t.Format(dateLayout)
}

// Midnight returns 00:00:00 of the timestamp's calendar day.
func (t Timestamp) Midnight() time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(timestampLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("order_time must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
