package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/internal/analytics"
	apperr "github.com/Adithya-Monish-Kumar-K/Restaurant-Order-Analytics/pkg/errors"
)

// restaurantQuery reads the directory parameters. Pagination never fails:
// unparseable values fall back to the defaults and the core clamps the rest.
// sortField and sortDir may carry comma-separated lists applied in order;
// unknown field names are ignored. A repeated field keeps its first position
// and takes the last direction given for it.
func restaurantQuery(v url.Values, defaultPageSize int) analytics.RestaurantQuery {
	q := analytics.RestaurantQuery{
		Q:        strings.TrimSpace(v.Get("q")),
		Location: strings.TrimSpace(v.Get("location")),
		Cuisine:  strings.TrimSpace(v.Get("cuisine")),
		Page:     intOr(v.Get("page"), 1),
		PageSize: intOr(v.Get("pageSize"), defaultPageSize),
	}

	dirs := strings.Split(v.Get("sortDir"), ",")
	seen := make(map[string]int)
	for i, name := range strings.Split(v.Get("sortField"), ",") {
		field, ok := analytics.LookupSortField(name)
		if !ok {
			continue
		}
		dir := analytics.Asc
		if i < len(dirs) {
			dir = analytics.ParseDirection(dirs[i])
		} else if len(dirs) == 1 {
			dir = analytics.ParseDirection(dirs[0])
		}
		if at, ok := seen[field.String()]; ok {
			q.Sort[at].Direction = dir
			continue
		}
		seen[field.String()] = len(q.Sort)
		q.Sort = append(q.Sort, analytics.SortKey{Field: field, Direction: dir})
	}
	return q
}

func intOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func restaurantID(r *http.Request) (int64, error) {
	raw := r.PathValue("restaurantId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.InvalidInput("restaurantId must be an integer, got %q", raw)
	}
	return id, nil
}

func dailyFilters(v url.Values) (analytics.DailyFilters, error) {
	var (
		f   analytics.DailyFilters
		err error
	)
	if f.AmountMin, err = optionalInt64(v, "amountMin"); err != nil {
		return f, err
	}
	if f.AmountMax, err = optionalInt64(v, "amountMax"); err != nil {
		return f, err
	}
	if f.HourMin, err = optionalInt(v, "hourMin"); err != nil {
		return f, err
	}
	if f.HourMax, err = optionalInt(v, "hourMax"); err != nil {
		return f, err
	}
	return f, nil
}

// optionalInt64 returns nil for an absent or empty parameter.
func optionalInt64(v url.Values, name string) (*int64, error) {
	raw := strings.TrimSpace(v.Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.InvalidInput("%s must be an integer, got %q", name, raw)
	}
	return &n, nil
}

func optionalInt(v url.Values, name string) (*int, error) {
	n, err := optionalInt64(v, name)
	if n == nil || err != nil {
		return nil, err
	}
	i := int(*n)
	return &i, nil
}
