package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// GeoRadius restricts results to listings within RadiusMiles of Center.
type GeoRadius struct {
	Center      Coordinates `json:"center"`
	RadiusMiles float64     `json:"radiusMiles"`
}

// SearchFilters is a transient set of listing constraints. A nil pointer or
// empty value leaves that dimension unconstrained.
type SearchFilters struct {
	Location     string       `json:"location,omitempty"`
	MinPrice     *float64     `json:"minPrice,omitempty"`
	MaxPrice     *float64     `json:"maxPrice,omitempty"`
	Type         PropertyType `json:"propertyType,omitempty"`
	Kind         ListingKind  `json:"listingType,omitempty"`
	MinBedrooms  *int         `json:"bedrooms,omitempty"`
	MinBathrooms *int         `json:"bathrooms,omitempty"`
	MinArea      *float64     `json:"minArea,omitempty"`
	MaxArea      *float64     `json:"maxArea,omitempty"`
	Amenities    []string     `json:"amenities,omitempty"`
	Near         *GeoRadius   `json:"near,omitempty"`
}

func (f SearchFilters) IsEmpty() bool {
	return strings.TrimSpace(f.Location) == "" &&
		f.MinPrice == nil && f.MaxPrice == nil &&
		f.Type == "" && f.Kind == "" &&
		f.MinBedrooms == nil && f.MinBathrooms == nil &&
		f.MinArea == nil && f.MaxArea == nil &&
		len(f.Amenities) == 0 && f.Near == nil
}

// SearchEntry is one recorded search invocation.
type SearchEntry struct {
	Filters SearchFilters `json:"filters"`
	Query   string        `json:"query"`
	At      time.Time     `json:"at"`
}

// ParseSearchFilters reads filters from query-string form. Empty values are
// treated as unset; "all" and "any" are accepted as unset for the enum fields.
func ParseSearchFilters(q url.Values) (SearchFilters, error) {
	p := filterParser{q: q, errs: map[string]string{}}
	f := SearchFilters{
		Location:     strings.TrimSpace(q.Get("location")),
		MinPrice:     p.float("minPrice"),
		MaxPrice:     p.float("maxPrice"),
		MinBedrooms:  p.int("bedrooms"),
		MinBathrooms: p.int("bathrooms"),
		MinArea:      p.float("minArea"),
		MaxArea:      p.float("maxArea"),
		Amenities:    p.list("amenities"),
	}

	if t := p.enum("propertyType"); t != "" {
		f.Type = PropertyType(t)
		if !f.Type.Valid() {
			p.errs["propertyType"] = "unknown property type"
		}
	}
	if k := p.enum("listingType"); k != "" {
		f.Kind = ListingKind(k)
		if !f.Kind.Valid() {
			p.errs["listingType"] = "unknown listing type"
		}
	}

	lat, lng, radius := p.float("lat"), p.float("lng"), p.float("radius")
	switch {
	case lat == nil && lng == nil && radius == nil:
	case lat == nil || lng == nil || radius == nil:
		p.errs["radius"] = "lat, lng and radius must be given together"
	case *radius <= 0:
		p.errs["radius"] = "must be greater than 0"
	default:
		f.Near = &GeoRadius{Center: Coordinates{Lat: *lat, Lng: *lng}, RadiusMiles: *radius}
	}

	if len(p.errs) > 0 {
		return SearchFilters{}, &ValidationError{Fields: p.errs}
	}
	return f, nil
}

// Encode renders f back into the query-string form accepted by
// ParseSearchFilters.
func (f SearchFilters) Encode() string {
	v := url.Values{}
	if s := strings.TrimSpace(f.Location); s != "" {
		v.Set("location", s)
	}
	setFloat(v, "minPrice", f.MinPrice)
	setFloat(v, "maxPrice", f.MaxPrice)
	if f.Type != "" {
		v.Set("propertyType", string(f.Type))
	}
	if f.Kind != "" {
		v.Set("listingType", string(f.Kind))
	}
	setInt(v, "bedrooms", f.MinBedrooms)
	setInt(v, "bathrooms", f.MinBathrooms)
	setFloat(v, "minArea", f.MinArea)
	setFloat(v, "maxArea", f.MaxArea)
	if len(f.Amenities) > 0 {
		v.Set("amenities", strings.Join(f.Amenities, ","))
	}
	if f.Near != nil {
		setFloat(v, "lat", &f.Near.Center.Lat)
		setFloat(v, "lng", &f.Near.Center.Lng)
		setFloat(v, "radius", &f.Near.RadiusMiles)
	}
	return v.Encode()
}

func setFloat(v url.Values, key string, f *float64) {
	if f != nil {
		v.Set(key, strconv.FormatFloat(*f, 'f', -1, 64))
	}
}

func setInt(v url.Values, key string, n *int) {
	if n != nil {
		v.Set(key, strconv.Itoa(*n))
	}
}

type filterParser struct {
	q    url.Values
	errs map[string]string
}

func (p filterParser) raw(key string) string {
	return strings.TrimSpace(p.q.Get(key))
}

func (p filterParser) enum(key string) string {
	s := strings.ToLower(p.raw(key))
	if s == "all" || s == "any" {
		return ""
	}
	return s
}

func (p filterParser) float(key string) *float64 {
	s := p.raw(key)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.errs[key] = "must be a number"
		return nil
	}
	return &f
}

func (p filterParser) int(key string) *int {
	s := p.raw(key)
	if s == "" {
		return nil
	}
	// "3+" is how the bedroom picker labels its last option.
	n, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
	if err != nil {
		p.errs[key] = "must be a whole number"
		return nil
	}
	return &n
}

func (p filterParser) list(key string) []string {
	var out []string
	for _, raw := range p.q[key] {
		for _, part := range strings.Split(raw, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
