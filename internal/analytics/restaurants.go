package analytics

import (
	"cmp"
	"slices"
	"strings"
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// ParseDirection returns Desc for "desc" (any case) and Asc for anything else.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

type fieldKind int

const (
	kindNumber fieldKind = iota
	kindString
)

// SortField is a sortable restaurant attribute.
type SortField struct {
	name string
	kind fieldKind
	num  func(Restaurant) int64
	str  func(Restaurant) string
}

var (
	FieldID       = SortField{name: "id", kind: kindNumber, num: func(r Restaurant) int64 { return r.ID }}
	FieldName     = SortField{name: "name", kind: kindString, str: func(r Restaurant) string { return r.Name }}
	FieldLocation = SortField{name: "location", kind: kindString, str: func(r Restaurant) string { return r.Location }}
	FieldCuisine  = SortField{name: "cuisine", kind: kindString, str: func(r Restaurant) string { return r.Cuisine }}
)

var sortFields = map[string]SortField{
	FieldID.name:       FieldID,
	FieldName.name:     FieldName,
	FieldLocation.name: FieldLocation,
	FieldCuisine.name:  FieldCuisine,
}

// LookupSortField resolves a field name. Unknown names report false and are
// left out of the sort.
func LookupSortField(name string) (SortField, bool) {
	f, ok := sortFields[strings.TrimSpace(name)]
	return f, ok
}

func (f SortField) String() string { return f.name }

func (f SortField) compare(a, b Restaurant) int {
	switch f.kind {
	case kindNumber:
		return cmp.Compare(f.num(a), f.num(b))
	default:
		return strings.Compare(f.str(a), f.str(b))
	}
}

// SortKey is one entry of the ordered sort mapping.
type SortKey struct {
	Field     SortField
	Direction Direction
}

// RestaurantQuery holds normalized directory query parameters.
type RestaurantQuery struct {
	Q        string
	Location string
	Cuisine  string
	Sort     []SortKey
	Page     int
	PageSize int
}

// RestaurantPage is the paginated directory response.
type RestaurantPage struct {
	Data  []Restaurant `json:"data"`
	Total int          `json:"total"`
}

// QueryRestaurants runs search, location filter, cuisine filter, sort and
// pagination in that order. The input slice is never modified.
func QueryRestaurants(restaurants []Restaurant, q RestaurantQuery) RestaurantPage {
	result := slices.Clone(restaurants)

	if q.Q != "" {
		needle := strings.ToLower(q.Q)
		result = slices.DeleteFunc(result, func(r Restaurant) bool {
			return !strings.Contains(strings.ToLower(r.Name), needle) &&
				!strings.Contains(strings.ToLower(r.Location), needle) &&
				!strings.Contains(strings.ToLower(r.Cuisine), needle)
		})
	}
	if q.Location != "" {
		loc := strings.ToLower(q.Location)
		result = slices.DeleteFunc(result, func(r Restaurant) bool {
			return strings.ToLower(r.Location) != loc
		})
	}
	if q.Cuisine != "" {
		c := strings.ToLower(q.Cuisine)
		result = slices.DeleteFunc(result, func(r Restaurant) bool {
			return strings.ToLower(r.Cuisine) != c
		})
	}

	// Each key re-sorts the whole result, so the last key dominates.
	for _, key := range q.Sort {
		slices.SortStableFunc(result, func(a, b Restaurant) int {
			c := key.Field.compare(a, b)
			if key.Direction == Desc {
				return -c
			}
			return c
		})
	}

	total := len(result)
	page, pageSize := max(q.Page, 1), max(q.PageSize, 1)
	// Checked by division first so huge page numbers cannot overflow.
	offset := total
	if page-1 <= total/pageSize {
		offset = min((page-1)*pageSize, total)
	}
	end := offset + min(pageSize, total-offset)

	data := make([]Restaurant, end-offset)
	copy(data, result[offset:end])
	return RestaurantPage{Data: data, Total: total}
}
