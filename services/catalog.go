package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/repository"
)

// StockResult reports the drink after a stock upsert and whether it was new.
type StockResult struct {
	Drink   *models.DrinkType
	Outcome repository.UpsertOutcome
}

func (r StockResult) Created() bool {
	return r.Outcome == repository.UpsertCreated
}

// Catalog manages drink catalog entries and their stock.
type Catalog struct {
	db   *gorm.DB
	opts options
}

func NewCatalog(db *gorm.DB, opts ...Option) *Catalog {
	return &Catalog{db: db, opts: buildOptions(opts)}
}

// UpsertStock sets the available quantity of the named drink, creating the
// entry when no case-insensitive match exists.
func (c *Catalog) UpsertStock(ctx context.Context, name string, quantity int) (StockResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return StockResult{}, apperrors.Invalid("drink_name", "drink_name and quantity are required")
	}
	if quantity < 0 {
		return StockResult{}, apperrors.Invalid("quantity", "quantity must be a non-negative integer")
	}

	var result StockResult
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		drinks := repository.NewDrinkRepository(tx)
		drink, outcome, err := drinks.FirstOrCreate(ctx, name, quantity)
		if err != nil {
			return err
		}
		if outcome == repository.UpsertExisting && drink.AvailableQuantity != quantity {
			if err := drinks.Update(ctx, drink.ID, nil, &quantity); err != nil {
				return err
			}
			drink.AvailableQuantity = quantity
		}
		result = StockResult{Drink: drink, Outcome: outcome}
		return nil
	})
	if err != nil {
		return StockResult{}, err
	}

	c.opts.logger.Info("Drink stock set",
		zap.String("drink", result.Drink.Name),
		zap.Int("quantity", quantity),
		zap.String("outcome", string(result.Outcome)))
	return result, nil
}

func (c *Catalog) List(ctx context.Context) ([]models.DrinkType, error) {
	return repository.NewDrinkRepository(c.db).List(ctx)
}

// Update renames and/or restocks a drink.
func (c *Catalog) Update(ctx context.Context, id uint, name *string, quantity *int) (*models.DrinkType, error) {
	if name != nil && strings.TrimSpace(*name) == "" {
		return nil, apperrors.Invalid("name", "name must not be empty")
	}
	if quantity != nil && *quantity < 0 {
		return nil, apperrors.Invalid("quantity", "quantity must be a non-negative integer")
	}
	drinks := repository.NewDrinkRepository(c.db)
	if err := drinks.Update(ctx, id, name, quantity); err != nil {
		return nil, err
	}
	return drinks.GetByID(ctx, id)
}

func (c *Catalog) Delete(ctx context.Context, id uint) error {
	return repository.NewDrinkRepository(c.db).Delete(ctx, id)
}
