package listing

import (
	"strings"

	"github.com/umahmood/haversine"
	"github.com/vbonduro/homefinder/internal/domain"
)

type matcher struct {
	f         domain.SearchFilters
	location  string
	amenities []string
}

func newMatcher(f domain.SearchFilters) matcher {
	m := matcher{f: f, location: strings.ToLower(strings.TrimSpace(f.Location))}
	for _, a := range f.Amenities {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			m.amenities = append(m.amenities, a)
		}
	}
	return m
}

func (m matcher) matches(rec domain.PropertyRecord) bool {
	f := m.f
	if m.location != "" &&
		!strings.Contains(strings.ToLower(rec.Location), m.location) &&
		!strings.Contains(strings.ToLower(rec.Address), m.location) {
		return false
	}
	if f.MinPrice != nil && rec.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && rec.Price > *f.MaxPrice {
		return false
	}
	if f.Type != "" && rec.Type != f.Type {
		return false
	}
	if f.Kind != "" && rec.Kind != f.Kind {
		return false
	}
	if f.MinBedrooms != nil && rec.Bedrooms < *f.MinBedrooms {
		return false
	}
	if f.MinBathrooms != nil && rec.Bathrooms < *f.MinBathrooms {
		return false
	}
	if f.MinArea != nil && rec.AreaSqft < *f.MinArea {
		return false
	}
	if f.MaxArea != nil && rec.AreaSqft > *f.MaxArea {
		return false
	}
	if !hasAmenities(rec.Amenities, m.amenities) {
		return false
	}
	if f.Near != nil && DistanceMiles(f.Near.Center, rec.Coordinates) > f.Near.RadiusMiles {
		return false
	}
	return true
}

// hasAmenities reports whether have contains every entry of want, ignoring case.
func hasAmenities(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(strings.TrimSpace(h), w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// DistanceMiles is the great-circle distance between two points.
func DistanceMiles(a, b domain.Coordinates) float64 {
	mi, _ := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lng},
		haversine.Coord{Lat: b.Lat, Lon: b.Lng},
	)
	return mi
}
