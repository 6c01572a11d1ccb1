package analytics

import (
	"math"
	"slices"
	"testing"
)

func sampleRestaurants() []Restaurant {
	return []Restaurant{
		{ID: 1, Name: "Pizza Place", Location: "NY", Cuisine: "Italian"},
		{ID: 2, Name: "Bangkok Bites", Location: "LA", Cuisine: "Thai"},
		{ID: 3, Name: "Curry House", Location: "Chicago", Cuisine: "Indian"},
		{ID: 4, Name: "Trattoria", Location: "ny", Cuisine: "italian"},
		{ID: 5, Name: "Green Papaya", Location: "LA", Cuisine: "Thai"},
	}
}

func ids(rs []Restaurant) []int64 {
	out := make([]int64, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestQueryRestaurantsLocationFilter(t *testing.T) {
	restaurants := []Restaurant{
		{ID: 1, Name: "A", Location: "NY", Cuisine: "Italian"},
		{ID: 2, Name: "B", Location: "LA", Cuisine: "Thai"},
	}
	page := QueryRestaurants(restaurants, RestaurantQuery{Location: "NY", Page: 1, PageSize: 10})
	if page.Total != 1 {
		t.Fatalf("total = %d, want 1", page.Total)
	}
	if len(page.Data) != 1 || page.Data[0].ID != 1 {
		t.Errorf("data = %+v, want restaurant 1", page.Data)
	}
}

func TestQueryRestaurantsSearch(t *testing.T) {
	tests := []struct {
		name string
		q    string
		want []int64
	}{
		{"name substring", "piz", []int64{1}},
		{"case insensitive", "PIZZA", []int64{1}},
		{"matches location", "chic", []int64{3}},
		{"matches cuisine", "thai", []int64{2, 5}},
		{"any field", "ny", []int64{1, 4}},
		{"no match", "sushi", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := QueryRestaurants(sampleRestaurants(), RestaurantQuery{Q: tt.q, Page: 1, PageSize: 10})
			if got := ids(page.Data); !slices.Equal(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
			if page.Total != len(tt.want) {
				t.Errorf("total = %d, want %d", page.Total, len(tt.want))
			}
		})
	}
}

func TestQueryRestaurantsFiltersAreExactAndCaseInsensitive(t *testing.T) {
	page := QueryRestaurants(sampleRestaurants(), RestaurantQuery{Location: "Ny", Cuisine: "ITALIAN", Page: 1, PageSize: 10})
	if got := ids(page.Data); !slices.Equal(got, []int64{1, 4}) {
		t.Errorf("ids = %v, want [1 4]", got)
	}

	// "N" is a substring of "NY" but location matching is exact.
	page = QueryRestaurants(sampleRestaurants(), RestaurantQuery{Location: "N", Page: 1, PageSize: 10})
	if page.Total != 0 {
		t.Errorf("partial location matched %d restaurants", page.Total)
	}
}

func TestQueryRestaurantsSearchThenFilter(t *testing.T) {
	page := QueryRestaurants(sampleRestaurants(), RestaurantQuery{Q: "thai", Location: "la", Page: 1, PageSize: 10})
	if got := ids(page.Data); !slices.Equal(got, []int64{2, 5}) {
		t.Errorf("ids = %v, want [2 5]", got)
	}
}

func TestQueryRestaurantsMissingFieldsNeverFail(t *testing.T) {
	restaurants := []Restaurant{{ID: 7}, {ID: 8, Name: "Noodle Bar"}}
	page := QueryRestaurants(restaurants, RestaurantQuery{Q: "noodle", Location: "", Page: 1, PageSize: 10})
	if got := ids(page.Data); !slices.Equal(got, []int64{8}) {
		t.Errorf("ids = %v, want [8]", got)
	}
}

func TestQueryRestaurantsEmptySortPreservesOrder(t *testing.T) {
	input := []Restaurant{
		{ID: 9, Name: "Z"}, {ID: 2, Name: "A"}, {ID: 5, Name: "M"},
	}
	page := QueryRestaurants(input, RestaurantQuery{Page: 1, PageSize: 10})
	if got := ids(page.Data); !slices.Equal(got, []int64{9, 2, 5}) {
		t.Errorf("ids = %v, want input order", got)
	}
}

func TestQueryRestaurantsSortDirections(t *testing.T) {
	base := RestaurantQuery{Page: 1, PageSize: 10}

	asc := base
	asc.Sort = []SortKey{{Field: FieldName, Direction: Asc}}
	desc := base
	desc.Sort = []SortKey{{Field: FieldName, Direction: Desc}}

	ascIDs := ids(QueryRestaurants(sampleRestaurants(), asc).Data)
	descIDs := ids(QueryRestaurants(sampleRestaurants(), desc).Data)

	if want := []int64{2, 3, 5, 1, 4}; !slices.Equal(ascIDs, want) {
		t.Errorf("asc ids = %v, want %v", ascIDs, want)
	}
	reversed := slices.Clone(ascIDs)
	slices.Reverse(reversed)
	if !slices.Equal(descIDs, reversed) {
		t.Errorf("desc ids = %v, want reverse of asc %v", descIDs, reversed)
	}
}

func TestQueryRestaurantsNumericSort(t *testing.T) {
	input := []Restaurant{{ID: 10}, {ID: 9}, {ID: 100}}
	page := QueryRestaurants(input, RestaurantQuery{
		Sort: []SortKey{{Field: FieldID, Direction: Asc}}, Page: 1, PageSize: 10,
	})
	// Numeric, not lexical: 9 < 10 < 100.
	if got := ids(page.Data); !slices.Equal(got, []int64{9, 10, 100}) {
		t.Errorf("ids = %v, want [9 10 100]", got)
	}
}

func TestQueryRestaurantsSortIsStable(t *testing.T) {
	page := QueryRestaurants(sampleRestaurants(), RestaurantQuery{
		Sort: []SortKey{{Field: FieldLocation, Direction: Asc}}, Page: 1, PageSize: 10,
	})
	// LA (2, 5) keep their relative order; "NY" sorts before "ny".
	if got := ids(page.Data); !slices.Equal(got, []int64{3, 2, 5, 1, 4}) {
		t.Errorf("ids = %v, want [3 2 5 1 4]", got)
	}
}

func TestQueryRestaurantsLastSortKeyDominates(t *testing.T) {
	multi := QueryRestaurants(sampleRestaurants(), RestaurantQuery{
		Sort: []SortKey{
			{Field: FieldCuisine, Direction: Asc},
			{Field: FieldName, Direction: Desc},
		},
		Page: 1, PageSize: 10,
	})
	nameOnly := QueryRestaurants(sampleRestaurants(), RestaurantQuery{
		Sort: []SortKey{{Field: FieldName, Direction: Desc}}, Page: 1, PageSize: 10,
	})
	if !slices.Equal(ids(multi.Data), ids(nameOnly.Data)) {
		t.Errorf("multi-key ids = %v, want name-only ids %v", ids(multi.Data), ids(nameOnly.Data))
	}
}

func TestQueryRestaurantsPagination(t *testing.T) {
	restaurants := make([]Restaurant, 23)
	for i := range restaurants {
		restaurants[i] = Restaurant{ID: int64(i + 1)}
	}
	tests := []struct {
		name      string
		page      int
		pageSize  int
		wantFirst int64
		wantLen   int
	}{
		{"first page", 1, 10, 1, 10},
		{"second page", 2, 10, 11, 10},
		{"partial last page", 3, 10, 21, 3},
		{"past the end", 4, 10, 0, 0},
		{"zero page clamps to 1", 0, 10, 1, 10},
		{"negative page clamps to 1", -3, 10, 1, 10},
		{"zero page size clamps to 1", 2, 0, 2, 1},
		{"huge page", math.MaxInt, 10, 0, 0},
		{"huge page size", 1, math.MaxInt, 1, 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := QueryRestaurants(restaurants, RestaurantQuery{Page: tt.page, PageSize: tt.pageSize})
			if page.Total != 23 {
				t.Errorf("total = %d, want 23", page.Total)
			}
			if len(page.Data) != tt.wantLen {
				t.Fatalf("len(data) = %d, want %d", len(page.Data), tt.wantLen)
			}
			if tt.wantLen > 0 && page.Data[0].ID != tt.wantFirst {
				t.Errorf("first id = %d, want %d", page.Data[0].ID, tt.wantFirst)
			}
			if page.Data == nil {
				t.Error("data must be an empty slice, not nil")
			}
		})
	}
}

func TestQueryRestaurantsPageSizeBound(t *testing.T) {
	for pageSize := 1; pageSize <= 7; pageSize++ {
		for page := 1; page <= 6; page++ {
			got := QueryRestaurants(sampleRestaurants(), RestaurantQuery{Page: page, PageSize: pageSize})
			if len(got.Data) > pageSize {
				t.Errorf("page=%d size=%d returned %d rows", page, pageSize, len(got.Data))
			}
			if got.Total != 5 {
				t.Errorf("page=%d size=%d total=%d", page, pageSize, got.Total)
			}
		}
	}
}

func TestQueryRestaurantsDoesNotMutateInput(t *testing.T) {
	input := sampleRestaurants()
	before := slices.Clone(input)
	QueryRestaurants(input, RestaurantQuery{
		Q:    "a",
		Sort: []SortKey{{Field: FieldName, Direction: Desc}},
		Page: 1, PageSize: 2,
	})
	if !slices.Equal(input, before) {
		t.Errorf("input modified: %+v", input)
	}
}

func TestLookupSortField(t *testing.T) {
	for _, name := range []string{"id", "name", "location", "cuisine"} {
		f, ok := LookupSortField(name)
		if !ok || f.String() != name {
			t.Errorf("LookupSortField(%q) = %v, %v", name, f, ok)
		}
	}
	if _, ok := LookupSortField("rating"); ok {
		t.Error("unknown field should not resolve")
	}
	if ParseDirection("DESC") != Desc || ParseDirection("sideways") != Asc {
		t.Error("ParseDirection mismatch")
	}
}
