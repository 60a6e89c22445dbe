package listing

import (
	"cmp"
	"slices"

	"github.com/vbonduro/homefinder/internal/domain"
)

type SortOrder string

const (
	SortNone      SortOrder = ""
	SortNewest    SortOrder = "newest"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
	SortAreaDesc  SortOrder = "area-desc"
)

func (o SortOrder) Valid() bool {
	switch o {
	case SortNone, SortNewest, SortPriceAsc, SortPriceDesc, SortAreaDesc:
		return true
	}
	return false
}

// Sort returns a stably sorted copy of recs. SortNone keeps the input order.
func Sort(recs []domain.PropertyRecord, order SortOrder) []domain.PropertyRecord {
	out := slices.Clone(recs)
	var compare func(a, b domain.PropertyRecord) int
	switch order {
	case SortNewest:
		compare = func(a, b domain.PropertyRecord) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortPriceAsc:
		compare = func(a, b domain.PropertyRecord) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceDesc:
		compare = func(a, b domain.PropertyRecord) int { return cmp.Compare(b.Price, a.Price) }
	case SortAreaDesc:
		compare = func(a, b domain.PropertyRecord) int { return cmp.Compare(b.AreaSqft, a.AreaSqft) }
	default:
		return out
	}
	slices.SortStableFunc(out, compare)
	return out
}
