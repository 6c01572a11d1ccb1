// Package events records one QueryEvent per analytics request and ships them
// to Kafka in batches. Tracking never blocks a request: when the buffer is
// full the event is dropped.
package events

import "time"

// Operation names the analytics endpoint that produced an event.
type Operation string

const (
	OpRestaurants Operation = "restaurants"
	OpDaily       Operation = "daily"
	OpTopRevenue  Operation = "top_revenue"
)

// QueryEvent describes one served query.
type QueryEvent struct {
	Operation Operation         `json:"operation"`
	Params    map[string]string `json:"params,omitempty"`
	Results   int               `json:"results"`
	Status    int               `json:"status"`
	LatencyMs int64             `json:"latency_ms"`
	CacheHit  bool              `json:"cache_hit"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Key partitions events by operation.
func (e QueryEvent) Key() string {
	return string(e.Operation)
}
