package grid

import (
	"sort"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
)

// FilterOptions are the distinct values offered by the filter selectors.
type FilterOptions struct {
	Divisions  []string `json:"divisions"`
	Brands     []string `json:"brands"`
	Categories []string `json:"categories"`
}

// Filter keeps the records matching every non-"all" criterion. The input is not modified.
func Filter(records []models.AllocationRecord, criteria models.FilterCriteria) []models.AllocationRecord {
	criteria = criteria.Normalize()

	out := make([]models.AllocationRecord, 0, len(records))
	for _, rec := range records {
		if !matches(criteria.Division, rec.Division) {
			continue
		}
		if !matches(criteria.Brand, rec.BrandSignature) {
			continue
		}
		if !matches(criteria.Category, rec.Hierarchy) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matches(criterion, value string) bool {
	return criterion == models.FilterAll || criterion == value
}

// DistinctValues collects the sorted, non-empty attribute values of an unfiltered dataset.
func DistinctValues(records []models.AllocationRecord) FilterOptions {
	return FilterOptions{
		Divisions:  distinct(records, func(r models.AllocationRecord) string { return r.Division }),
		Brands:     distinct(records, func(r models.AllocationRecord) string { return r.BrandSignature }),
		Categories: distinct(records, func(r models.AllocationRecord) string { return r.Hierarchy }),
	}
}

func distinct(records []models.AllocationRecord, attr func(models.AllocationRecord) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, rec := range records {
		v := attr(rec)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
