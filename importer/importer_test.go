package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/repository"
	"github.com/camden-git/eventmealsbackend/testutil"
)

const lunchCSV = "\ufeffDelegate Name,Delegate Reg ID,UUID,Membership,Club Name,Extra Name\n" +
	"Mary Ann  Banda,7406.0,,Rotarian,Lusaka Central,Friday Lunch\n" +
	"Mary Ann Banda,7406,,,,Meat & Greet BBQ\n" +
	"Peter Phiri,,6F9619FF-8B86-D011-B42D-00C04FC964FF,Rotaractor,,Saturday Lunch\n" +
	"Peter Phiri,,6f9619ff-8b86-d011-b42d-00c04fc964ff,,Ndola,Male Bag\n" +
	",,,,,Friday Lunch\n"

const otherCSV = "Delegate Name,Delegate Reg ID,UUID,Membership,Club Name,Extra Name\n" +
	"Mary Ann Banda,7406,,,,Female Bag\n" +
	"Grace Mwale,,,Guest,,Blouse\n" +
	"Grace Mwale,,,,,Shirt\n" +
	"Zed,,,,,\n"

var importTime = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

func TestParseEventRows(t *testing.T) {
	delegates, err := ParseEventRows(strings.NewReader(lunchCSV), strings.NewReader(otherCSV))
	require.NoError(t, err)
	require.Len(t, delegates, 4)

	mary := delegates[0]
	assert.Equal(t, "Mary Ann Banda", mary.FullName)
	assert.Equal(t, "7406", mary.RegistrationID)
	assert.Equal(t, "Rotarian", mary.Membership)
	assert.Equal(t, "Lusaka Central", mary.Club)
	assert.True(t, mary.HasFridayLunch)
	assert.True(t, mary.HasBBQ)
	assert.False(t, mary.HasSaturdayLunch)
	assert.Equal(t, 1, mary.LunchSlots)
	assert.Equal(t, 1, mary.DinnerSlots)
	assert.Equal(t, models.GenderFemale, mary.Gender)
	assert.True(t, mary.Sources[SourceLunch])
	assert.True(t, mary.Sources[SourceOther])

	peter := delegates[1]
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", peter.ExternalUUID)
	assert.Equal(t, "Ndola", peter.Club)
	assert.True(t, peter.HasSaturdayLunch)
	assert.Equal(t, models.GenderMale, peter.Gender)

	grace := delegates[2]
	assert.Equal(t, models.GenderUnknown, grace.Gender, "conflicting hints")
	assert.Zero(t, grace.LunchSlots)
	assert.False(t, grace.Sources[SourceLunch])

	first, last := delegates[0].SplitName()
	assert.Equal(t, "Mary", first)
	assert.Equal(t, "Ann Banda", last)

	first, last = delegates[3].SplitName()
	assert.Equal(t, "Zed", first)
	assert.Empty(t, last)
}

func TestParseEventRows_MissingHeader(t *testing.T) {
	_, err := ParseEventRows(strings.NewReader(""), strings.NewReader(otherCSV))
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	people := repository.NewPersonRepository(db)

	delegates, err := ParseEventRows(strings.NewReader(lunchCSV), strings.NewReader(otherCSV))
	require.NoError(t, err)

	result, err := Apply(ctx, db, delegates, false, importTime, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 4}, result)

	found, err := people.FindByName(ctx, "mary", "ann banda")
	require.NoError(t, err)
	require.Len(t, found, 1)
	mary := found[0]
	assert.Equal(t, 1, mary.LunchesRemaining)
	assert.Equal(t, 1, mary.DinnersRemaining)
	assert.Equal(t, models.WeeklyDrinks, mary.DrinksRemaining)
	assert.Equal(t, models.GenderFemale, mary.Gender)

	// re-importing matches the same rows
	again, err := Apply(ctx, db, delegates, false, importTime, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 4}, again)

	count, err := people.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestApply_Reset(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	people := repository.NewPersonRepository(db)
	require.NoError(t, people.Create(ctx, &models.Person{FirstName: "Old", LastName: "Entry", Gender: models.GenderUnknown, WeekStart: importTime}))

	delegates, err := ParseEventRows(strings.NewReader(lunchCSV), strings.NewReader(otherCSV))
	require.NoError(t, err)

	result, err := Apply(ctx, db, delegates, true, importTime, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Deleted)
	assert.Equal(t, 4, result.Created)

	old, err := people.FindByName(ctx, "Old", "Entry")
	require.NoError(t, err)
	assert.Empty(t, old)
}
