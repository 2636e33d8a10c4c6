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

const personOrder = "first_name ASC, last_name ASC, id ASC"

// PersonRepository handles database operations for the attendee registry
type PersonRepository struct {
	DB *gorm.DB
}

// NewPersonRepository creates a new instance of PersonRepository
func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{DB: db}
}

// likePattern escapes LIKE wildcards and wraps the lowered term in %...%.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

func allowanceColumn(kind models.MealKind) (string, error) {
	switch kind {
	case models.MealLunch:
		return "lunches_remaining", nil
	case models.MealDinner:
		return "dinners_remaining", nil
	case models.MealDrink:
		return "drinks_remaining", nil
	}
	return "", apperrors.Invalid("kind", fmt.Sprintf("unknown allowance kind %q", kind))
}

// Create creates a new person record in the database
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := NewPersonRepository(tx).checkIdentity(ctx, person); err != nil {
			return err
		}
		if err := tx.Create(person).Error; err != nil {
			return fmt.Errorf("failed to create person %s: %w", person.FullName(), err)
		}
		return nil
	})
}

// checkIdentity fails when another person already has this first name, last
// name and gender, ignoring case.
func (r *PersonRepository) checkIdentity(ctx context.Context, person *models.Person) error {
	var clashes int64
	err := r.DB.WithContext(ctx).Model(&models.Person{}).
		Where("LOWER(first_name) = ? AND LOWER(last_name) = ? AND gender = ? AND id <> ?",
			strings.ToLower(strings.TrimSpace(person.FirstName)),
			strings.ToLower(strings.TrimSpace(person.LastName)),
			person.Gender, person.ID).
		Count(&clashes).Error
	if err != nil {
		return fmt.Errorf("failed to check identity of %s: %w", person.FullName(), err)
	}
	if clashes > 0 {
		return apperrors.Duplicate("person", fmt.Sprintf("%s (%s)", person.FullName(), person.Gender))
	}
	return nil
}

// GetByID retrieves a person by their ID
func (r *PersonRepository) GetByID(ctx context.Context, id uint) (*models.Person, error) {
	var person models.Person
	err := r.DB.WithContext(ctx).First(&person, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("person", strconv.FormatUint(uint64(id), 10))
		}
		return nil, fmt.Errorf("failed to get person by ID %d: %w", id, err)
	}
	return &person, nil
}

// GetByIDs retrieves the given people in name order. Unknown IDs are skipped.
func (r *PersonRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Person, error) {
	if len(ids) == 0 {
		return []models.Person{}, nil
	}
	var people []models.Person
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order(personOrder).Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get people by IDs: %w", err)
	}
	return people, nil
}

// List retrieves people in name order. A limit <= 0 lists everyone.
func (r *PersonRepository) List(ctx context.Context, limit int) ([]models.Person, error) {
	var people []models.Person
	query := r.DB.WithContext(ctx).Order(personOrder)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&people).Error; err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return people, nil
}

func (r *PersonRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Person{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count people: %w", err)
	}
	return count, nil
}

// Update writes the editable registry fields, zero values included
func (r *PersonRepository) Update(ctx context.Context, person *models.Person) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := NewPersonRepository(tx).checkIdentity(ctx, person); err != nil {
			return err
		}
		result := tx.Model(&models.Person{ID: person.ID}).
			Select(
				"first_name", "last_name", "gender",
				"registration_id", "external_uuid",
				"club", "membership", "district", "dietary_requirements",
				"has_friday_lunch", "has_saturday_lunch", "has_bbq",
				"lunches_remaining", "dinners_remaining", "drinks_remaining",
				"week_start",
			).
			Updates(person)
		if result.Error != nil {
			return fmt.Errorf("failed to update person ID %d: %w", person.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("person", strconv.FormatUint(uint64(person.ID), 10))
		}
		return nil
	})
}

// Delete removes a person together with their consumption records and orders
func (r *PersonRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("person_id = ?", id).Delete(&models.ConsumptionRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete consumption records for person ID %d: %w", id, err)
		}
		if err := tx.Where("person_id = ?", id).Delete(&models.DrinkOrder{}).Error; err != nil {
			return fmt.Errorf("failed to delete drink orders for person ID %d: %w", id, err)
		}
		result := tx.Delete(&models.Person{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete person ID %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("person", strconv.FormatUint(uint64(id), 10))
		}
		return nil
	})
}

// DeleteAll wipes the registry and everything hanging off it.
func (r *PersonRepository) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ConsumptionRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear consumption records: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.DrinkOrder{}).Error; err != nil {
			return fmt.Errorf("failed to clear drink orders: %w", err)
		}
		result := tx.Where("1 = 1").Delete(&models.Person{})
		if result.Error != nil {
			return fmt.Errorf("failed to clear people: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

// FindByName returns people whose first and last names equal the given ones,
// ignoring case.
func (r *PersonRepository) FindByName(ctx context.Context, firstName, lastName string) ([]models.Person, error) {
	var people []models.Person
	err := r.DB.WithContext(ctx).
		Where("LOWER(first_name) = ? AND LOWER(last_name) = ?", strings.ToLower(firstName), strings.ToLower(lastName)).
		Order("id ASC").
		Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find people named '%s %s': %w", firstName, lastName, err)
	}
	return people, nil
}

// SearchFirstLast matches first names containing firstPart and last names
// containing lastPart.
func (r *PersonRepository) SearchFirstLast(ctx context.Context, firstPart, lastPart string, limit int) ([]models.Person, error) {
	var people []models.Person
	err := r.DB.WithContext(ctx).
		Where(`LOWER(first_name) LIKE ? ESCAPE '\' AND LOWER(last_name) LIKE ? ESCAPE '\'`, likePattern(firstPart), likePattern(lastPart)).
		Order(personOrder).
		Limit(limit).
		Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("error searching people by '%s' / '%s': %w", firstPart, lastPart, err)
	}
	return people, nil
}

// SearchAnyName matches people whose first or last name contains token.
func (r *PersonRepository) SearchAnyName(ctx context.Context, token string, limit int) ([]models.Person, error) {
	var people []models.Person
	pattern := likePattern(token)
	err := r.DB.WithContext(ctx).
		Where(`LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order(personOrder).
		Limit(limit).
		Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("error searching people by '%s': %w", token, err)
	}
	return people, nil
}

// SaveAllowance persists the three counters and the week anchor.
func (r *PersonRepository) SaveAllowance(ctx context.Context, person *models.Person) error {
	err := r.DB.WithContext(ctx).Model(&models.Person{ID: person.ID}).
		Select("lunches_remaining", "dinners_remaining", "drinks_remaining", "week_start").
		Updates(person).Error
	if err != nil {
		return fmt.Errorf("failed to save allowance for person ID %d: %w", person.ID, err)
	}
	return nil
}

// DecrementAllowance subtracts quantity from the counter for kind only when
// enough remains. It returns false when the row did not qualify.
func (r *PersonRepository) DecrementAllowance(ctx context.Context, personID uint, kind models.MealKind, quantity int) (bool, error) {
	column, err := allowanceColumn(kind)
	if err != nil {
		return false, err
	}
	result := r.DB.WithContext(ctx).Model(&models.Person{}).
		Where("id = ? AND "+column+" >= ?", personID, quantity).
		Update(column, gorm.Expr(column+" - ?", quantity))
	if result.Error != nil {
		return false, fmt.Errorf("failed to decrement %s for person ID %d: %w", column, personID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Upsert matches an existing person by external UUID, then registration ID,
// then case-insensitive name (same gender first). A match has every field
// overwritten except gender, which is only filled in when still UNKNOWN.
func (r *PersonRepository) Upsert(ctx context.Context, person *models.Person) (UpsertOutcome, error) {
	var outcome UpsertOutcome
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := NewPersonRepository(tx)
		existing, err := txRepo.match(ctx, person)
		if err != nil {
			return err
		}

		if existing == nil {
			if err := txRepo.Create(ctx, person); err != nil {
				return err
			}
			outcome = UpsertCreated
			return nil
		}

		gender := existing.Gender
		if gender == models.GenderUnknown && person.Gender != models.GenderUnknown {
			gender = person.Gender
		}
		person.ID = existing.ID
		person.Gender = gender
		person.CreatedAt = existing.CreatedAt
		if err := txRepo.Update(ctx, person); err != nil {
			return err
		}
		outcome = UpsertExisting
		return nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func (r *PersonRepository) match(ctx context.Context, person *models.Person) (*models.Person, error) {
	db := r.DB.WithContext(ctx)
	var found models.Person

	if person.ExternalUUID != nil && *person.ExternalUUID != "" {
		err := db.Where("external_uuid = ?", *person.ExternalUUID).Order("id ASC").First(&found).Error
		if err == nil {
			return &found, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to match person by UUID: %w", err)
		}
	}

	if person.RegistrationID != nil && *person.RegistrationID != "" {
		err := db.Where("registration_id = ?", *person.RegistrationID).Order("id ASC").First(&found).Error
		if err == nil {
			return &found, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to match person by registration ID: %w", err)
		}
	}

	byName, err := r.FindByName(ctx, person.FirstName, person.LastName)
	if err != nil {
		return nil, err
	}
	if len(byName) == 0 {
		return nil, nil
	}
	for i := range byName {
		if byName[i].Gender == person.Gender {
			return &byName[i], nil
		}
	}
	return &byName[0], nil
}
