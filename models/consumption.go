package models

import "time"

type MealKind string

const (
	MealLunch  MealKind = "lunch"
	MealDinner MealKind = "dinner"
	MealDrink  MealKind = "drink"
)

// MealKinds in display order.
var MealKinds = []MealKind{MealLunch, MealDinner, MealDrink}

func (k MealKind) Valid() bool {
	return k == MealLunch || k == MealDinner || k == MealDrink
}

// ConsumptionRecord is an immutable log entry written once per successful
// consumption (lunch, dinner, or an approved drink order).
type ConsumptionRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonID     uint      `gorm:"not null;index" json:"person_id"`
	Person       *Person   `gorm:"foreignKey:PersonID" json:"person,omitempty"`
	Kind         MealKind  `gorm:"column:meal_kind;not null;index" json:"meal_kind"`
	ConsumedAt   time.Time `gorm:"not null;index" json:"consumed_at"`
	ServingPoint *string   `json:"serving_point,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (ConsumptionRecord) TableName() string {
	return "consumption_records"
}
