package models

import (
	"strings"
	"time"
)

// Weekly allowance defaults restored by the lazy weekly reset.
const (
	WeeklyLunches = 3
	WeeklyDinners = 3
	WeeklyDrinks  = 15
)

// AllowancePeriod is how long a week_start anchor stays valid.
const AllowancePeriod = 7 * 24 * time.Hour

type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = "UNKNOWN"
)

// NormalizeGender maps F/M/FEMALE/MALE (any case) to a Gender, everything else to UNKNOWN.
func NormalizeGender(raw string) Gender {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "F", "FEMALE":
		return GenderFemale
	case "M", "MALE":
		return GenderMale
	default:
		return GenderUnknown
	}
}

// NormalizeName trims and collapses inner whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Person is an event attendee tracked for meal and drink allowances.
// It corresponds to the 'people' table.
type Person struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string `gorm:"not null;index:idx_people_name" json:"first_name"`
	LastName  string `gorm:"not null;index:idx_people_name" json:"last_name"`
	Gender    Gender `gorm:"not null;default:UNKNOWN" json:"gender"`

	RegistrationID *string `gorm:"index" json:"registration_id,omitempty"`
	ExternalUUID   *string `gorm:"index" json:"external_uuid,omitempty"`

	Club                *string `json:"club,omitempty"`
	Membership          *string `json:"membership,omitempty"`
	District            *string `json:"district,omitempty"`
	DietaryRequirements *string `json:"dietary_requirements,omitempty"`

	HasFridayLunch   bool `gorm:"not null;default:false" json:"has_friday_lunch"`
	HasSaturdayLunch bool `gorm:"not null;default:false" json:"has_saturday_lunch"`
	HasBBQ           bool `gorm:"not null;default:false" json:"has_bbq"`

	LunchesRemaining int `gorm:"not null;check:lunches_remaining >= 0" json:"lunches_remaining"`
	DinnersRemaining int `gorm:"not null;check:dinners_remaining >= 0" json:"dinners_remaining"`
	DrinksRemaining  int `gorm:"not null;check:drinks_remaining >= 0" json:"drinks_remaining"`

	WeekStart time.Time `gorm:"not null" json:"week_start"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ConsumptionRecords []ConsumptionRecord `gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE" json:"-"`
	DrinkOrders        []DrinkOrder        `gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "people"
}

func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// HasDayRestriction reports whether lunch is limited to the registered day(s).
// A person with neither flag paid for the all-meals package.
func (p Person) HasDayRestriction() bool {
	return p.HasFridayLunch || p.HasSaturdayLunch
}

// LunchDays lists the weekdays a restricted person may take lunch on.
func (p Person) LunchDays() []time.Weekday {
	var days []time.Weekday
	if p.HasFridayLunch {
		days = append(days, time.Friday)
	}
	if p.HasSaturdayLunch {
		days = append(days, time.Saturday)
	}
	return days
}

// CanLunchOn reports whether lunch is allowed on the given weekday.
func (p Person) CanLunchOn(day time.Weekday) bool {
	if !p.HasDayRestriction() {
		return true
	}
	for _, d := range p.LunchDays() {
		if d == day {
			return true
		}
	}
	return false
}

// WeeklyResetDue reports whether more than a week has passed since WeekStart.
func (p Person) WeeklyResetDue(now time.Time) bool {
	return now.Sub(p.WeekStart) > AllowancePeriod
}

// ResetWeeklyAllowance restores the weekly defaults when the anchor has
// expired. It returns true when the counters changed.
func (p *Person) ResetWeeklyAllowance(now time.Time) bool {
	if !p.WeeklyResetDue(now) {
		return false
	}
	p.LunchesRemaining = WeeklyLunches
	p.DinnersRemaining = WeeklyDinners
	p.DrinksRemaining = WeeklyDrinks
	p.WeekStart = now
	return true
}

// Remaining returns the counter for an allowance kind.
func (p Person) Remaining(kind MealKind) int {
	switch kind {
	case MealLunch:
		return p.LunchesRemaining
	case MealDinner:
		return p.DinnersRemaining
	case MealDrink:
		return p.DrinksRemaining
	}
	return 0
}

// PaidEvents lists the named events the person registered for.
func (p Person) PaidEvents() []string {
	var events []string
	if p.HasFridayLunch {
		events = append(events, "Friday lunch")
	}
	if p.HasSaturdayLunch {
		events = append(events, "Saturday lunch")
	}
	if p.HasBBQ {
		events = append(events, "BBQ dinner")
	}
	return events
}

// PaymentStatus derives the label shown to admins.
func (p Person) PaymentStatus() string {
	if events := p.PaidEvents(); len(events) > 0 {
		return "Paid for " + strings.Join(events, ", ")
	}
	if p.LunchesRemaining > 0 || p.DinnersRemaining > 0 {
		return "All meals access"
	}
	return "Did not pay for meals"
}
