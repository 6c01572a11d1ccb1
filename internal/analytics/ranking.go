package analytics

import "slices"

// RevenueEntry is one row of the revenue ranking.
type RevenueEntry struct {
	RestaurantID int64 `json:"restaurant_id"`
	Revenue      int64 `json:"revenue"`
}

// TopRevenue sums order amounts per restaurant over rng and returns the limit
// highest totals, descending. Equal totals keep the order in which the
// restaurants first appear in orders.
func TopRevenue(orders []Order, rng DateRange, limit int) []RevenueEntry {
	index := make(map[int64]int)
	totals := make([]RevenueEntry, 0)
	for _, o := range orders {
		if !rng.Contains(o.OrderTime) {
			continue
		}
		i, ok := index[o.RestaurantID]
		if !ok {
			i = len(totals)
			index[o.RestaurantID] = i
			totals = append(totals, RevenueEntry{RestaurantID: o.RestaurantID})
		}
		totals[i].Revenue += o.OrderAmount
	}

	slices.SortStableFunc(totals, func(a, b RevenueEntry) int {
		switch {
		case a.Revenue > b.Revenue:
			return -1
		case a.Revenue < b.Revenue:
			return 1
		default:
			return 0
		}
	})
	if limit >= 0 && len(totals) > limit {
		totals = totals[:limit]
	}
	return totals
}
