package domain

type FilterKey string

const (
	FilterCity      FilterKey = "city"
	FilterCategory  FilterKey = "category"
	FilterDateRange FilterKey = "dateRange"
)

// DefaultVisibleFilters is used when no admin configuration is stored.
func DefaultVisibleFilters() []string {
	return []string{string(FilterCity), string(FilterCategory), string(FilterDateRange)}
}

func (k FilterKey) Supported() bool {
	switch k {
	case FilterCity, FilterCategory, FilterDateRange:
		return true
	}
	return false
}
