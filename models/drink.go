package models

import "time"

// LowStockThreshold marks catalog entries the assistant flags as running low.
const LowStockThreshold = 30

// DrinkType is a catalog entry with a tracked available quantity.
type DrinkType struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string    `gorm:"not null;uniqueIndex" json:"name"`
	AvailableQuantity int       `gorm:"not null;default:0;check:available_quantity >= 0" json:"available_quantity"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (DrinkType) TableName() string {
	return "drink_types"
}

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderApproved OrderStatus = "approved"
	OrderDenied   OrderStatus = "denied"
)

// DrinkOrder is a requested drink consumption waiting for an admin decision.
// Pending orders move to approved or denied exactly once.
type DrinkOrder struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonID     uint        `gorm:"not null;index" json:"person_id"`
	Person       *Person     `gorm:"foreignKey:PersonID" json:"person,omitempty"`
	DrinkTypeID  uint        `gorm:"not null;index" json:"drink_type_id"`
	DrinkType    *DrinkType  `gorm:"foreignKey:DrinkTypeID;constraint:OnDelete:CASCADE" json:"drink_type,omitempty"`
	Quantity     int         `gorm:"not null;check:quantity >= 1" json:"quantity"`
	ServingPoint string      `gorm:"not null" json:"serving_point"`
	Status       OrderStatus `gorm:"not null;default:pending;index" json:"status"`
	CreatedAt    time.Time   `gorm:"index" json:"created_at"`
	ResolvedAt   *time.Time  `json:"resolved_at,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (DrinkOrder) TableName() string {
	return "drink_orders"
}

func (o DrinkOrder) IsPending() bool {
	return o.Status == OrderPending
}
