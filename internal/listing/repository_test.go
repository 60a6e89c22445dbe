package listing

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/homefinder/internal/domain"
	"github.com/vbonduro/homefinder/internal/gateway"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func record(id string, price float64, typ domain.PropertyType, beds int, location string) domain.PropertyRecord {
	rec := domain.NewPropertyRecord(id, "Listing "+id, price, domain.ForSale, typ, location, t0)
	rec.Bedrooms = beds
	rec.Bathrooms = 1
	rec.AreaSqft = 1000
	rec.Images = []string{"https://img.example.com/" + id + ".jpg"}
	return rec
}

func seeded() *Repository {
	repo := NewRepository(slog.Default())
	downtown := record("p1", 450000, domain.Apartment, 2, "Downtown, New York")
	downtown.Amenities = []string{"Pool", "Gym"}
	downtown.Coordinates = domain.Coordinates{Lat: 40.7128, Lng: -74.0060}
	downtown.Featured = true

	house := record("p2", 850000, domain.House, 4, "Austin, Texas")
	house.AreaSqft = 2600
	house.Coordinates = domain.Coordinates{Lat: 30.2672, Lng: -97.7431}

	rental := record("p3", 3200, domain.Condo, 1, "Brooklyn, New York")
	rental.Kind = domain.ForRent
	rental.Address = "12 Bedford Ave"
	rental.Amenities = []string{"gym"}
	rental.Coordinates = domain.Coordinates{Lat: 40.7081, Lng: -73.9571}

	repo.Replace([]domain.PropertyRecord{downtown, house, rental})
	return repo
}

func ids(recs []domain.PropertyRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestMatchScenarioApartmentTwoBedrooms(t *testing.T) {
	repo := NewRepository(slog.Default())
	repo.Replace([]domain.PropertyRecord{record("p1", 450000, domain.Apartment, 2, "Downtown, New York")})

	f, err := domain.ParseSearchFilters(map[string][]string{"propertyType": {"apartment"}, "bedrooms": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(repo.Match(f)))

	f, err = domain.ParseSearchFilters(map[string][]string{"bedrooms": {"3"}})
	require.NoError(t, err)
	assert.Empty(t, repo.Match(f))
}

func TestMatchEmptyFiltersReturnsEverythingInOrder(t *testing.T) {
	repo := seeded()

	got := repo.Match(domain.SearchFilters{})

	if diff := cmp.Diff(repo.All(), got); diff != "" {
		t.Errorf("Match({}) mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchPredicates(t *testing.T) {
	repo := seeded()

	tests := []struct {
		name    string
		filters domain.SearchFilters
		want    []string
	}{
		{"location is case-insensitive substring", domain.SearchFilters{Location: "new YORK"}, []string{"p1", "p3"}},
		{"location matches address", domain.SearchFilters{Location: "bedford"}, []string{"p3"}},
		{"price range is inclusive", domain.SearchFilters{MinPrice: ptr(3200.0), MaxPrice: ptr(450000.0)}, []string{"p1", "p3"}},
		{"exact type", domain.SearchFilters{Type: domain.House}, []string{"p2"}},
		{"listing kind", domain.SearchFilters{Kind: domain.ForRent}, []string{"p3"}},
		{"at least bedrooms", domain.SearchFilters{MinBedrooms: ptr(2)}, []string{"p1", "p2"}},
		{"at least bathrooms", domain.SearchFilters{MinBathrooms: ptr(2)}, nil},
		{"area range", domain.SearchFilters{MinArea: ptr(2000.0), MaxArea: ptr(2600.0)}, []string{"p2"}},
		{"all amenities required", domain.SearchFilters{Amenities: []string{"GYM", "pool"}}, []string{"p1"}},
		{"single amenity", domain.SearchFilters{Amenities: []string{"gym"}}, []string{"p1", "p3"}},
		{"radius", domain.SearchFilters{Near: &domain.GeoRadius{
			Center: domain.Coordinates{Lat: 40.7128, Lng: -74.0060}, RadiusMiles: 10,
		}}, []string{"p1", "p3"}},
		{"combined", domain.SearchFilters{Location: "york", MinBedrooms: ptr(2), Type: domain.Apartment}, []string{"p1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(repo.Match(tt.filters))
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// Every returned record satisfies every active predicate, and nothing that
// satisfies them is dropped.
func TestMatchNeverViolatesFilters(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	types := domain.PropertyTypes
	locations := []string{"Downtown, New York", "Austin, Texas", "Miami Beach", "Brooklyn, New York"}
	amenities := []string{"pool", "gym", "parking", "garden"}

	var recs []domain.PropertyRecord
	for i := 0; i < 200; i++ {
		rec := record(string(rune('A'+i%26))+string(rune('a'+i/26)), float64(1000+rng.Intn(900000)),
			types[rng.Intn(len(types))], rng.Intn(6), locations[rng.Intn(len(locations))])
		rec.Bathrooms = rng.Intn(4)
		rec.AreaSqft = float64(200 + rng.Intn(4000))
		for _, a := range amenities {
			if rng.Intn(2) == 0 {
				rec.Amenities = append(rec.Amenities, a)
			}
		}
		recs = append(recs, rec)
	}
	repo := NewRepository(slog.Default())
	repo.Replace(recs)

	for i := 0; i < 300; i++ {
		var f domain.SearchFilters
		if rng.Intn(2) == 0 {
			f.Location = []string{"new york", "TEXAS", "beach", "x"}[rng.Intn(4)]
		}
		if rng.Intn(2) == 0 {
			f.MinPrice = ptr(float64(rng.Intn(500000)))
		}
		if rng.Intn(2) == 0 {
			f.MaxPrice = ptr(float64(rng.Intn(900000)))
		}
		if rng.Intn(3) == 0 {
			f.Type = types[rng.Intn(len(types))]
		}
		if rng.Intn(2) == 0 {
			f.MinBedrooms = ptr(rng.Intn(6))
		}
		if rng.Intn(3) == 0 {
			f.MinArea = ptr(float64(rng.Intn(3000)))
		}
		if rng.Intn(3) == 0 {
			f.Amenities = []string{amenities[rng.Intn(len(amenities))]}
		}

		got := repo.Match(f)
		m := newMatcher(f)
		want := 0
		for _, rec := range recs {
			if m.matches(rec) {
				want++
			}
		}
		require.Len(t, got, want)
		for _, rec := range got {
			assertSatisfies(t, f, rec)
		}
	}
}

func assertSatisfies(t *testing.T, f domain.SearchFilters, rec domain.PropertyRecord) {
	t.Helper()
	if f.Location != "" {
		assert.Contains(t, strings.ToLower(rec.Location+" "+rec.Address), strings.ToLower(f.Location))
	}
	if f.MinPrice != nil {
		assert.GreaterOrEqual(t, rec.Price, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		assert.LessOrEqual(t, rec.Price, *f.MaxPrice)
	}
	if f.Type != "" {
		assert.Equal(t, f.Type, rec.Type)
	}
	if f.MinBedrooms != nil {
		assert.GreaterOrEqual(t, rec.Bedrooms, *f.MinBedrooms)
	}
	if f.MinArea != nil {
		assert.GreaterOrEqual(t, rec.AreaSqft, *f.MinArea)
	}
	for _, a := range f.Amenities {
		assert.Contains(t, rec.Amenities, a)
	}
}

func TestGetByID(t *testing.T) {
	repo := seeded()

	rec, ok := repo.GetByID("p2")
	require.True(t, ok)
	assert.Equal(t, domain.House, rec.Type)

	_, ok = repo.GetByID("missing")
	assert.False(t, ok)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	repo := seeded()

	rec, _ := repo.GetByID("p1")
	rec.Amenities[0] = "Helipad"

	again, _ := repo.GetByID("p1")
	assert.Equal(t, "Pool", again.Amenities[0])
}

func TestFeaturedIsRecomputedOnReplace(t *testing.T) {
	repo := seeded()
	assert.Equal(t, []string{"p1"}, ids(repo.Featured()))

	all := repo.All()
	all[0].Featured = false
	all[1].Featured = true
	repo.Replace(all)

	assert.Equal(t, []string{"p2"}, ids(repo.Featured()))
}

func TestStats(t *testing.T) {
	s := seeded().Stats()

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Featured)
	assert.Equal(t, 2, s.ByKind[domain.ForSale])
	assert.Equal(t, 1, s.ByType[domain.Condo])
}

func TestChangesSignalsReplace(t *testing.T) {
	repo := NewRepository(slog.Default())
	v, ch := repo.Changes()

	repo.Replace(nil)

	select {
	case <-ch:
	default:
		t.Fatal("change channel not closed")
	}
	v2, _ := repo.Changes()
	assert.Equal(t, v+1, v2)
	assert.True(t, repo.Loaded())
}

type fakeSource struct {
	ch  chan gateway.Snapshot
	err error
}

func (f *fakeSource) Subscribe(context.Context) (<-chan gateway.Snapshot, error) {
	return f.ch, f.err
}

func TestRunMirrorsSnapshots(t *testing.T) {
	repo := NewRepository(slog.Default())
	src := &fakeSource{ch: make(chan gateway.Snapshot, 2)}
	src.ch <- gateway.Snapshot{Properties: []domain.PropertyRecord{record("p1", 1, domain.Land, 0, "Nowhere")}}
	src.ch <- gateway.Snapshot{Err: errors.New("permission denied")}
	close(src.ch)

	err := repo.Run(context.Background(), src)

	assert.EqualError(t, err, "permission denied")
	_, ok := repo.GetByID("p1")
	assert.True(t, ok, "mirror keeps the last good snapshot")
}

func TestRunStopsQuietlyWhenGatewayCloses(t *testing.T) {
	repo := NewRepository(slog.Default())
	src := &fakeSource{ch: make(chan gateway.Snapshot, 1)}
	src.ch <- gateway.Snapshot{Err: gateway.ErrClosed}
	close(src.ch)

	assert.NoError(t, repo.Run(context.Background(), src))
}

func TestRunSubscribeError(t *testing.T) {
	repo := NewRepository(slog.Default())

	err := repo.Run(context.Background(), &fakeSource{err: errors.New("offline")})

	assert.ErrorContains(t, err, "offline")
	assert.False(t, repo.Loaded())
}
