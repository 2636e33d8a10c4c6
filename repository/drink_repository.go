package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/models"
)

// DrinkRepository handles database operations for the drink catalog
type DrinkRepository struct {
	DB *gorm.DB
}

func NewDrinkRepository(db *gorm.DB) *DrinkRepository {
	return &DrinkRepository{DB: db}
}

func (r *DrinkRepository) GetByID(ctx context.Context, id uint) (*models.DrinkType, error) {
	var drink models.DrinkType
	err := r.DB.WithContext(ctx).First(&drink, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("drink", strconv.FormatUint(uint64(id), 10))
		}
		return nil, fmt.Errorf("failed to get drink by ID %d: %w", id, err)
	}
	return &drink, nil
}

// GetByName looks a drink up by name, ignoring case
func (r *DrinkRepository) GetByName(ctx context.Context, name string) (*models.DrinkType, error) {
	var drink models.DrinkType
	err := r.DB.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&drink).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("drink", name)
		}
		return nil, fmt.Errorf("failed to get drink by name '%s': %w", name, err)
	}
	return &drink, nil
}

// List returns the catalog ordered by name
func (r *DrinkRepository) List(ctx context.Context) ([]models.DrinkType, error) {
	var drinks []models.DrinkType
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&drinks).Error; err != nil {
		return nil, fmt.Errorf("failed to list drinks: %w", err)
	}
	return drinks, nil
}

// FirstOrCreate returns the drink named name, creating it with quantity when
// no case-insensitive match exists. An existing entry is left untouched.
func (r *DrinkRepository) FirstOrCreate(ctx context.Context, name string, quantity int) (*models.DrinkType, UpsertOutcome, error) {
	name = strings.TrimSpace(name)
	var drink *models.DrinkType
	var outcome UpsertOutcome
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := NewDrinkRepository(tx)
		existing, err := txRepo.GetByName(ctx, name)
		if err == nil {
			drink, outcome = existing, UpsertExisting
			return nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		created := &models.DrinkType{Name: name, AvailableQuantity: quantity}
		if err := tx.Create(created).Error; err != nil {
			return fmt.Errorf("failed to create drink '%s': %w", name, err)
		}
		drink, outcome = created, UpsertCreated
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return drink, outcome, nil
}

// Update changes the name and/or quantity of a catalog entry. A new name may
// not collide, ignoring case, with another entry.
func (r *DrinkRepository) Update(ctx context.Context, id uint, name *string, quantity *int) error {
	updates := make(map[string]interface{})
	if name != nil {
		updates["name"] = strings.TrimSpace(*name)
	}
	if quantity != nil {
		updates["available_quantity"] = *quantity
	}
	if len(updates) == 0 {
		return nil
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if name != nil {
			trimmed := strings.TrimSpace(*name)
			var clashes int64
			err := tx.Model(&models.DrinkType{}).
				Where("LOWER(name) = ? AND id <> ?", strings.ToLower(trimmed), id).
				Count(&clashes).Error
			if err != nil {
				return fmt.Errorf("failed to check drink name '%s': %w", trimmed, err)
			}
			if clashes > 0 {
				return apperrors.Duplicate("drink", trimmed)
			}
		}

		result := tx.Model(&models.DrinkType{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update drink ID %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("drink", strconv.FormatUint(uint64(id), 10))
		}
		return nil
	})
}

// Delete removes a catalog entry and its orders
func (r *DrinkRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("drink_type_id = ?", id).Delete(&models.DrinkOrder{}).Error; err != nil {
			return fmt.Errorf("failed to delete orders for drink ID %d: %w", id, err)
		}
		result := tx.Delete(&models.DrinkType{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete drink ID %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("drink", strconv.FormatUint(uint64(id), 10))
		}
		return nil
	})
}

// DecrementStock takes quantity off the available stock only when enough is
// left. It returns false when the row did not qualify.
func (r *DrinkRepository) DecrementStock(ctx context.Context, id uint, quantity int) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&models.DrinkType{}).
		Where("id = ? AND available_quantity >= ?", id, quantity).
		Update("available_quantity", gorm.Expr("available_quantity - ?", quantity))
	if result.Error != nil {
		return false, fmt.Errorf("failed to decrement stock for drink ID %d: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}
