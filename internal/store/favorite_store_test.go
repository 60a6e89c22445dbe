package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/homefinder/internal/domain"
)

func TestFavoriteStoreAddIsIdempotent(t *testing.T) {
	d := openTestDB(t)
	props := NewPropertyStore(d)
	favs := NewFavoriteStore(d)
	ctx := context.Background()

	_, err := props.Create(ctx, newRecord("p1", "Loft", 100, domain.Condo))
	require.NoError(t, err)

	require.NoError(t, favs.Add(ctx, "u1", "p1"))
	require.NoError(t, favs.Add(ctx, "u1", "p1"))

	list, err := favs.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].PropertyID)

	ok, err := favs.Exists(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFavoriteStoreRemove(t *testing.T) {
	d := openTestDB(t)
	props := NewPropertyStore(d)
	favs := NewFavoriteStore(d)
	ctx := context.Background()

	_, err := props.Create(ctx, newRecord("p1", "Loft", 100, domain.Condo))
	require.NoError(t, err)
	require.NoError(t, favs.Add(ctx, "u1", "p1"))

	require.NoError(t, favs.Remove(ctx, "u1", "p1"))
	require.NoError(t, favs.Remove(ctx, "u1", "p1"))

	ok, err := favs.Exists(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFavoriteStoreRejectsUnknownProperty(t *testing.T) {
	favs := NewFavoriteStore(openTestDB(t))

	assert.Error(t, favs.Add(context.Background(), "u1", "missing"))
}

func TestFavoriteStoreCascadesOnPropertyDelete(t *testing.T) {
	d := openTestDB(t)
	props := NewPropertyStore(d)
	favs := NewFavoriteStore(d)
	ctx := context.Background()

	_, err := props.Create(ctx, newRecord("p1", "Loft", 100, domain.Condo))
	require.NoError(t, err)
	require.NoError(t, favs.Add(ctx, "u1", "p1"))
	require.NoError(t, props.Delete(ctx, "p1"))

	list, err := favs.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
