package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPerson_ResetWeeklyAllowanceIsIdempotent(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	p := Person{LunchesRemaining: 0, DinnersRemaining: 1, DrinksRemaining: 2, WeekStart: start}

	now := start.Add(AllowancePeriod + time.Minute)
	assert.True(t, p.ResetWeeklyAllowance(now))
	assert.Equal(t, WeeklyLunches, p.LunchesRemaining)
	assert.Equal(t, WeeklyDinners, p.DinnersRemaining)
	assert.Equal(t, WeeklyDrinks, p.DrinksRemaining)
	assert.Equal(t, now, p.WeekStart)

	p.LunchesRemaining = 1
	assert.False(t, p.ResetWeeklyAllowance(now.Add(6*24*time.Hour)))
	assert.Equal(t, 1, p.LunchesRemaining)
}

func TestPerson_ResetNotDueAtExactlyOneWeek(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	p := Person{WeekStart: start}
	assert.False(t, p.WeeklyResetDue(start.Add(AllowancePeriod)))
}

func TestPerson_PaymentStatus(t *testing.T) {
	assert.Equal(t, "Paid for Friday lunch, BBQ dinner", Person{HasFridayLunch: true, HasBBQ: true}.PaymentStatus())
	assert.Equal(t, "All meals access", Person{DinnersRemaining: 1}.PaymentStatus())
	assert.Equal(t, "Did not pay for meals", Person{DrinksRemaining: 15}.PaymentStatus())
}

func TestPerson_CanLunchOn(t *testing.T) {
	both := Person{HasFridayLunch: true, HasSaturdayLunch: true}
	assert.True(t, both.CanLunchOn(time.Friday))
	assert.True(t, both.CanLunchOn(time.Saturday))
	assert.False(t, both.CanLunchOn(time.Sunday))
	assert.True(t, Person{}.CanLunchOn(time.Wednesday))
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, "Mary Ann", NormalizeName("  Mary   Ann "))
	assert.Equal(t, GenderFemale, NormalizeGender(" female"))
	assert.Equal(t, GenderMale, NormalizeGender("m"))
	assert.Equal(t, GenderUnknown, NormalizeGender("other"))
}
