package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/homefinder/internal/db"
	"github.com/vbonduro/homefinder/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func newRecord(id, title string, price float64, typ domain.PropertyType) domain.PropertyRecord {
	rec := domain.NewPropertyRecord(id, title, price, domain.ForSale, typ, "Downtown, New York", time.Time{})
	rec.Bedrooms = 2
	rec.Images = []string{"https://img.example.com/" + id + ".jpg"}
	return rec
}

func TestPropertyStoreCreate(t *testing.T) {
	props := NewPropertyStore(openTestDB(t))
	ctx := context.Background()

	rec := newRecord("p1", "Sunny loft", 450000, domain.Apartment)
	rec.Amenities = []string{"Pool", "Gym"}
	rec.Coordinates = domain.Coordinates{Lat: 40.71, Lng: -74.01}
	rec.Featured = true

	got, err := props.Create(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, domain.Apartment, got.Type)
	assert.Equal(t, domain.ForSale, got.Kind)
	assert.Equal(t, []string{"Pool", "Gym"}, got.Amenities)
	assert.Equal(t, 40.71, got.Coordinates.Lat)
	assert.True(t, got.Featured)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestPropertyStoreGetByID_Missing(t *testing.T) {
	props := NewPropertyStore(openTestDB(t))

	got, err := props.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPropertyStoreListKeepsInsertionOrder(t *testing.T) {
	props := NewPropertyStore(openTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		_, err := props.Create(ctx, newRecord(id, "Home "+id, 100, domain.House))
		require.NoError(t, err)
	}

	list, err := props.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "b", list[2].ID)
}

func TestPropertyStoreUpdate(t *testing.T) {
	props := NewPropertyStore(openTestDB(t))
	ctx := context.Background()

	rec, err := props.Create(ctx, newRecord("p1", "Loft", 100, domain.Condo))
	require.NoError(t, err)

	rec.Title = "Renovated loft"
	rec.Price = 125
	updated, err := props.Update(ctx, *rec)
	require.NoError(t, err)
	assert.Equal(t, "Renovated loft", updated.Title)
	assert.Equal(t, 125.0, updated.Price)
}

func TestPropertyStoreUpdate_NotFound(t *testing.T) {
	props := NewPropertyStore(openTestDB(t))

	_, err := props.Update(context.Background(), newRecord("ghost", "Ghost", 1, domain.Land))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPropertyStoreDelete(t *testing.T) {
	props := NewPropertyStore(openTestDB(t))
	ctx := context.Background()

	_, err := props.Create(ctx, newRecord("p1", "Loft", 100, domain.Condo))
	require.NoError(t, err)

	require.NoError(t, props.Delete(ctx, "p1"))
	got, err := props.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.True(t, errors.Is(props.Delete(ctx, "p1"), domain.ErrNotFound))
}

func TestPropertyStoreQuery(t *testing.T) {
	props := NewPropertyStore(openTestDB(t))
	ctx := context.Background()

	for i, price := range []float64{100, 200, 300, 400} {
		rec := newRecord(string(rune('a'+i)), "Home", price, domain.House)
		rec.Featured = price >= 300
		_, err := props.Create(ctx, rec)
		require.NoError(t, err)
	}

	featured, err := props.Query(ctx, Query{Field: "featured", Op: "=", Value: true})
	require.NoError(t, err)
	assert.Len(t, featured, 2)

	cheap, err := props.Query(ctx, Query{Field: "price", Op: "<", Value: 300, Limit: 1})
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	assert.Equal(t, "a", cheap[0].ID)

	notHouses, err := props.Query(ctx, Query{Field: "propertyType", Op: "!=", Value: "house"})
	require.NoError(t, err)
	assert.Empty(t, notHouses)
}

func TestPropertyStoreQuery_RejectsUnknownField(t *testing.T) {
	props := NewPropertyStore(openTestDB(t))

	_, err := props.Query(context.Background(), Query{Field: "title; DROP TABLE properties", Op: "="})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = props.Query(context.Background(), Query{Field: "price", Op: "LIKE"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
