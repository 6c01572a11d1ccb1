package analytics

// DailyFilters are optional inclusive bounds; nil means the bound is not
// applied.
type DailyFilters struct {
	AmountMin *int64
	AmountMax *int64
	HourMin   *int
	HourMax   *int
}

func (f DailyFilters) allows(o Order) bool {
	hour := o.OrderTime.Hour()
	switch {
	case f.AmountMin != nil && o.OrderAmount < *f.AmountMin:
		return false
	case f.AmountMax != nil && o.OrderAmount > *f.AmountMax:
		return false
	case f.HourMin != nil && hour < *f.HourMin:
		return false
	case f.HourMax != nil && hour > *f.HourMax:
		return false
	}
	return true
}

// DayMetric aggregates one calendar day. PeakHour is nil on days without
// orders.
type DayMetric struct {
	Date     string  `json:"date"`
	Orders   int     `json:"orders"`
	Revenue  int64   `json:"revenue"`
	AOV      float64 `json:"aov"`
	PeakHour *int    `json:"peak_hour"`
}

// DailyReport is the daily metrics response.
type DailyReport struct {
	Daily []DayMetric `json:"daily"`
}

// dayBucket accumulates the orders of one day.
type dayBucket struct {
	orders  int
	revenue int64
	hours   [24]int
	// seen lists hours in order of first appearance, for tie-breaking.
	seen []int
}

func (b *dayBucket) add(o Order) {
	b.orders++
	b.revenue += o.OrderAmount
	h := o.OrderTime.Hour()
	if b.hours[h] == 0 {
		b.seen = append(b.seen, h)
	}
	b.hours[h]++
}

// peakHour returns the busiest hour. On ties the hour that first appeared in
// the day's orders wins.
func (b *dayBucket) peakHour() *int {
	if b.orders == 0 {
		return nil
	}
	peak := b.seen[0]
	for _, h := range b.seen[1:] {
		if b.hours[h] > b.hours[peak] {
			peak = h
		}
	}
	return &peak
}

// averageOrderValue is revenue/orders rounded half away from zero to two
// decimals, 0 without orders. Rounding happens on integer cents so exact
// halves such as 1.005 are not lost to binary floating point.
func averageOrderValue(revenue int64, orders int) float64 {
	if orders <= 0 {
		return 0
	}
	cents, d := revenue*100, int64(orders)
	q, rem := cents/d, cents%d
	if rem < 0 {
		rem = -rem
	}
	if 2*rem >= d {
		if cents < 0 {
			q--
		} else {
			q++
		}
	}
	return float64(q) / 100
}

// DailyMetrics aggregates a restaurant's orders per calendar day over rng.
// Every day of the range is present in ascending order, including days
// without qualifying orders.
func DailyMetrics(orders []Order, restaurantID int64, rng DateRange, f DailyFilters) DailyReport {
	buckets := make(map[string]*dayBucket)
	for _, o := range orders {
		if o.RestaurantID != restaurantID || !rng.Contains(o.OrderTime) || !f.allows(o) {
			continue
		}
		key := o.OrderTime.DayKey()
		b, ok := buckets[key]
		if !ok {
			b = &dayBucket{}
			buckets[key] = b
		}
		b.add(o)
	}

	days := rng.Days()
	daily := make([]DayMetric, 0, len(days))
	for _, day := range days {
		b, ok := buckets[day]
		if !ok {
			b = &dayBucket{}
		}
		daily = append(daily, DayMetric{
			Date:     day,
			Orders:   b.orders,
			Revenue:  b.revenue,
			AOV:      averageOrderValue(b.revenue, b.orders),
			PeakHour: b.peakHour(),
		})
	}
	return DailyReport{Daily: daily}
}
