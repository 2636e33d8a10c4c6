package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Admin is an operator account for the administrator surface and the admin
// assistant.
type Admin struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Username          string    `json:"username" gorm:"uniqueIndex;not null"`
	DisplayName       string    `json:"display_name"`
	PasswordHash      string    `json:"-" gorm:"not null"`                         // "-" means don't include in JSON responses
	GlobalPermissions []string  `json:"global_permissions" gorm:"serializer:json"` // Use JSON serializer
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (Admin) TableName() string {
	return "admins"
}

// SetPassword hashes the given password and sets it on the admin model.
func (a *Admin) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the given password matches the admin's hashed password.
func (a *Admin) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
	return err == nil
}

// HasGlobalPermission checks if the admin holds a specific permission key.
func (a *Admin) HasGlobalPermission(permission string) bool {
	for _, p := range a.GlobalPermissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Name is what the assistant calls the admin.
func (a *Admin) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Username
}
