package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/repository"
)

func TestCatalog_UpsertStock(t *testing.T) {
	f := newFixture(t)

	created, err := f.catalog.UpsertStock(bg(), " Cola ", 12)
	require.NoError(t, err)
	assert.True(t, created.Created())
	assert.Equal(t, "Cola", created.Drink.Name)
	assert.Equal(t, 12, created.Drink.AvailableQuantity)

	existing, err := f.catalog.UpsertStock(bg(), "cola", 0)
	require.NoError(t, err)
	assert.Equal(t, repository.UpsertExisting, existing.Outcome)
	assert.Equal(t, created.Drink.ID, existing.Drink.ID)
	assert.Equal(t, 0, f.stock(t, existing.Drink))

	drinks, err := f.catalog.List(bg())
	require.NoError(t, err)
	assert.Len(t, drinks, 1)
}

func TestCatalog_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.UpsertStock(bg(), "Cola", -1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.catalog.UpsertStock(bg(), "", 1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	d := f.drink(t, "Water", 5)
	negative := -3
	_, err = f.catalog.Update(bg(), d.ID, nil, &negative)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCatalog_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	d := f.drink(t, "Water", 5)

	name := "Sparkling Water"
	qty := 40
	updated, err := f.catalog.Update(bg(), d.ID, &name, &qty)
	require.NoError(t, err)
	assert.Equal(t, "Sparkling Water", updated.Name)
	assert.Equal(t, 40, updated.AvailableQuantity)

	require.NoError(t, f.catalog.Delete(bg(), d.ID))
	assert.ErrorIs(t, f.catalog.Delete(bg(), d.ID), apperrors.ErrNotFound)

	_, err = f.catalog.Update(bg(), d.ID, &name, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalog_RenameClashIgnoringCase(t *testing.T) {
	f := newFixture(t)
	cola := f.drink(t, "Cola", 10)
	fanta := f.drink(t, "Fanta", 5)

	name := "COLA"
	_, err := f.catalog.Update(bg(), fanta.ID, &name, nil)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	drinks, err := f.catalog.List(bg())
	require.NoError(t, err)
	require.Len(t, drinks, 2)
	assert.Equal(t, "Cola", drinks[0].Name)
	assert.Equal(t, "Fanta", drinks[1].Name)

	// changing only the case of its own name is fine
	updated, err := f.catalog.Update(bg(), cola.ID, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "COLA", updated.Name)
}
