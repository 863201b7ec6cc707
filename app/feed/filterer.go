package feed

import (
	"fmt"
	"strings"
)

// Filter keeps or drops items by a case-insensitive substring match on one
// field. An item is dropped when it matches any exclude, or when includes are
// given and it matches none of them.
type Filter struct {
	Field    string
	Includes []string
	Excludes []string
}

type Filterer struct {
	filters []Filter
}

func NewFilterer(filters []Filter) *Filterer {
	return &Filterer{filters: filters}
}

// Run splits items into kept items and the reasons the others were dropped,
// keyed by item ID.
func (f *Filterer) Run(items []Item) ([]Item, map[string]string) {
	if len(f.filters) == 0 {
		return items, nil
	}

	kept := make([]Item, 0, len(items))
	dropped := make(map[string]string)

	for _, item := range items {
		if reason, ok := f.applyFilters(item); ok {
			dropped[item.ID] = reason
			continue
		}
		kept = append(kept, item)
	}

	return kept, dropped
}

func (f *Filterer) applyFilters(item Item) (string, bool) {
	for _, filter := range f.filters {
		value := getFieldValue(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if matchesFilter(value, exclude) {
				return fmt.Sprintf("excluded by %s filter: contains '%s'", filter.Field, exclude), true
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return fmt.Sprintf("excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes), true
			}
		}
	}

	return "", false
}

func matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func getFieldValue(item Item, field string) string {
	switch field {
	case "title":
		return item.Title
	case "link":
		return item.Link
	default:
		return ""
	}
}
