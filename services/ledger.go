package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/repository"
)

// Identity is how a serving point identifies an attendee.
type Identity struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
}

// Ledger records lunch and dinner consumption against weekly allowances and
// routes drink requests into the approval workflow.
type Ledger struct {
	db        *gorm.DB
	approvals *Approvals
	opts      options
}

func NewLedger(db *gorm.DB, approvals *Approvals, opts ...Option) *Ledger {
	return &Ledger{db: db, approvals: approvals, opts: buildOptions(opts)}
}

// ResolvePerson finds the registry entry for id. Names match exactly ignoring
// case and extra whitespace; a same-gender match wins over other name matches.
func (l *Ledger) ResolvePerson(ctx context.Context, id Identity) (*models.Person, error) {
	first := models.NormalizeName(id.FirstName)
	last := models.NormalizeName(id.LastName)
	if first == "" || last == "" || strings.TrimSpace(id.Gender) == "" {
		return nil, apperrors.Invalid("", "first_name, last_name and gender are required")
	}
	gender := models.NormalizeGender(id.Gender)

	people, err := repository.NewPersonRepository(l.db).FindByName(ctx, first, last)
	if err != nil {
		return nil, err
	}
	if len(people) == 0 {
		return nil, apperrors.NotFound("person", first+" "+last)
	}
	for i := range people {
		if people[i].Gender == gender {
			return &people[i], nil
		}
	}
	return &people[0], nil
}

// Consume takes one lunch or dinner from the person's allowance and logs it.
// Drinks go through RequestDrink instead.
func (l *Ledger) Consume(ctx context.Context, kind models.MealKind, personID uint) (*models.Person, error) {
	if kind != models.MealLunch && kind != models.MealDinner {
		return nil, apperrors.Invalid("kind", fmt.Sprintf("%q cannot be consumed directly", kind))
	}

	var updated *models.Person
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		people := repository.NewPersonRepository(tx)
		person, err := people.GetByID(ctx, personID)
		if err != nil {
			return err
		}

		now := l.opts.now()
		if err := resetIfDue(ctx, people, person, now); err != nil {
			return err
		}

		if kind == models.MealLunch && !person.CanLunchOn(now.Weekday()) {
			return &apperrors.EligibilityError{AllowedDays: weekdayNames(person.LunchDays())}
		}

		remaining := person.Remaining(kind)
		if remaining <= 0 {
			return &apperrors.AllowanceExhaustedError{Kind: string(kind), Remaining: remaining, Requested: 1}
		}
		ok, err := people.DecrementAllowance(ctx, personID, kind, 1)
		if err != nil {
			return err
		}
		if !ok {
			return &apperrors.AllowanceExhaustedError{Kind: string(kind), Remaining: 0, Requested: 1}
		}

		record := &models.ConsumptionRecord{PersonID: personID, Kind: kind, ConsumedAt: now}
		if err := repository.NewConsumptionRepository(tx).Create(ctx, record); err != nil {
			return err
		}

		updated, err = people.GetByID(ctx, personID)
		return err
	})
	if err != nil {
		l.opts.metrics.Rejected(string(kind), rejectionReason(err))
		return nil, err
	}

	l.opts.metrics.Consumed(string(kind), 1)
	l.opts.logger.Info("Allowance consumed",
		zap.Uint("person_id", personID),
		zap.String("kind", string(kind)),
		zap.Int("remaining", updated.Remaining(kind)))
	return updated, nil
}

// RequestDrink validates a drink request and files it as a pending order.
// Nothing is deducted until the order is approved.
func (l *Ledger) RequestDrink(ctx context.Context, personID uint, drinkName string, quantity int, servingPoint string) (*models.DrinkOrder, error) {
	if strings.TrimSpace(servingPoint) == "" {
		return nil, apperrors.Invalid("serving_point", "serving_point is required")
	}
	if strings.TrimSpace(drinkName) == "" {
		return nil, apperrors.Invalid("drink_name", "drink_name is required")
	}
	if quantity < 1 {
		return nil, apperrors.Invalid("quantity", "quantity must be a positive integer")
	}
	return l.approvals.Submit(ctx, SubmitRequest{
		PersonID:     personID,
		DrinkName:    drinkName,
		Quantity:     quantity,
		ServingPoint: strings.TrimSpace(servingPoint),
	})
}

// Status resolves id and returns the person with any due weekly reset applied.
func (l *Ledger) Status(ctx context.Context, id Identity) (*models.Person, error) {
	person, err := l.ResolvePerson(ctx, id)
	if err != nil {
		return nil, err
	}
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return resetIfDue(ctx, repository.NewPersonRepository(tx), person, l.opts.now())
	})
	if err != nil {
		return nil, err
	}
	return person, nil
}

// History lists a person's most recent consumption records.
func (l *Ledger) History(ctx context.Context, personID uint, limit int) ([]models.ConsumptionRecord, error) {
	return repository.NewConsumptionRepository(l.db).ListForPerson(ctx, personID, limit)
}

// resetIfDue applies the lazy weekly reset and persists it. Calling it again
// inside the same week changes nothing.
func resetIfDue(ctx context.Context, people *repository.PersonRepository, person *models.Person, now time.Time) error {
	if !person.ResetWeeklyAllowance(now) {
		return nil
	}
	return people.SaveAllowance(ctx, person)
}

func weekdayNames(days []time.Weekday) []string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return names
}

func rejectionReason(err error) string {
	var (
		exhausted   *apperrors.AllowanceExhaustedError
		stock       *apperrors.InsufficientStockError
		eligibility *apperrors.EligibilityError
	)
	switch {
	case errors.As(err, &exhausted):
		return "allowance"
	case errors.As(err, &stock):
		return "stock"
	case errors.As(err, &eligibility):
		return "eligibility"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	}
	return "error"
}
