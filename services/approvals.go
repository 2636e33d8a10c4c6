package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/realtime"
	"github.com/camden-git/eventmealsbackend/repository"
)

// SubmitRequest describes a drink order to file for approval.
type SubmitRequest struct {
	PersonID     uint
	DrinkName    string
	Quantity     int
	ServingPoint string
}

// Approvals runs the pending -> approved/denied drink order workflow.
type Approvals struct {
	db   *gorm.DB
	opts options
}

func NewApprovals(db *gorm.DB, opts ...Option) *Approvals {
	return &Approvals{db: db, opts: buildOptions(opts)}
}

// Submit checks stock and allowance without deducting either and creates a
// pending order.
func (a *Approvals) Submit(ctx context.Context, req SubmitRequest) (*models.DrinkOrder, error) {
	if req.Quantity < 1 {
		return nil, apperrors.Invalid("quantity", "quantity must be a positive integer")
	}

	var order *models.DrinkOrder
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		people := repository.NewPersonRepository(tx)
		person, err := people.GetByID(ctx, req.PersonID)
		if err != nil {
			return err
		}
		drink, err := repository.NewDrinkRepository(tx).GetByName(ctx, req.DrinkName)
		if err != nil {
			return err
		}

		if drink.AvailableQuantity < req.Quantity {
			return &apperrors.InsufficientStockError{Drink: drink.Name, Available: drink.AvailableQuantity, Requested: req.Quantity}
		}
		if err := resetIfDue(ctx, people, person, a.opts.now()); err != nil {
			return err
		}
		if person.DrinksRemaining < req.Quantity {
			return &apperrors.AllowanceExhaustedError{Kind: string(models.MealDrink), Remaining: person.DrinksRemaining, Requested: req.Quantity}
		}

		order = &models.DrinkOrder{
			PersonID:     person.ID,
			DrinkTypeID:  drink.ID,
			Quantity:     req.Quantity,
			ServingPoint: req.ServingPoint,
			Status:       models.OrderPending,
			CreatedAt:    a.opts.now(),
		}
		if err := repository.NewOrderRepository(tx).Create(ctx, order); err != nil {
			return err
		}
		order.Person = person
		order.DrinkType = drink
		return nil
	})
	if err != nil {
		a.opts.metrics.Rejected(string(models.MealDrink), rejectionReason(err))
		return nil, err
	}

	a.opts.metrics.OrderTransition(string(models.OrderPending))
	a.opts.publish(orderEvent(realtime.EventOrderCreated, order))
	a.opts.logger.Info("Drink order submitted",
		zap.Uint("order_id", order.ID),
		zap.Uint("person_id", order.PersonID),
		zap.Int("quantity", order.Quantity))
	return order, nil
}

// Approve re-validates allowance and stock, deducts both and logs the drink.
// Any failure leaves the order pending with nothing deducted.
func (a *Approvals) Approve(ctx context.Context, orderID uint) (*models.DrinkOrder, error) {
	var approved *models.DrinkOrder
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := repository.NewOrderRepository(tx)
		people := repository.NewPersonRepository(tx)
		drinks := repository.NewDrinkRepository(tx)

		order, err := orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsPending() {
			return &apperrors.OrderStateError{OrderID: order.ID, Status: string(order.Status)}
		}

		now := a.opts.now()
		person := order.Person
		drink := order.DrinkType
		if err := resetIfDue(ctx, people, person, now); err != nil {
			return err
		}
		if person.DrinksRemaining < order.Quantity {
			return &apperrors.AllowanceExhaustedError{Kind: string(models.MealDrink), Remaining: person.DrinksRemaining, Requested: order.Quantity}
		}
		if drink.AvailableQuantity < order.Quantity {
			return &apperrors.InsufficientStockError{Drink: drink.Name, Available: drink.AvailableQuantity, Requested: order.Quantity}
		}

		ok, err := people.DecrementAllowance(ctx, person.ID, models.MealDrink, order.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return &apperrors.AllowanceExhaustedError{Kind: string(models.MealDrink), Remaining: person.DrinksRemaining, Requested: order.Quantity}
		}
		ok, err = drinks.DecrementStock(ctx, drink.ID, order.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return &apperrors.InsufficientStockError{Drink: drink.Name, Available: drink.AvailableQuantity, Requested: order.Quantity}
		}

		ok, err = orders.Transition(ctx, order.ID, models.OrderApproved, now)
		if err != nil {
			return err
		}
		if !ok {
			return resolvedOrderError(ctx, orders, order.ID)
		}

		servingPoint := order.ServingPoint
		record := &models.ConsumptionRecord{
			PersonID:     person.ID,
			Kind:         models.MealDrink,
			ConsumedAt:   now,
			ServingPoint: &servingPoint,
		}
		if err := repository.NewConsumptionRepository(tx).Create(ctx, record); err != nil {
			return err
		}

		approved, err = orders.GetByID(ctx, order.ID)
		return err
	})
	if err != nil {
		a.opts.logger.Warn("Drink order approval failed", zap.Uint("order_id", orderID), zap.Error(err))
		return nil, err
	}

	a.opts.metrics.OrderTransition(string(models.OrderApproved))
	a.opts.metrics.Consumed(string(models.MealDrink), approved.Quantity)
	a.opts.publish(orderEvent(realtime.EventOrderApproved, approved))
	a.opts.logger.Info("Drink order approved", zap.Uint("order_id", orderID))
	return approved, nil
}

// Deny resolves a pending order without touching any allowance or stock.
func (a *Approvals) Deny(ctx context.Context, orderID uint) (*models.DrinkOrder, error) {
	var denied *models.DrinkOrder
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := repository.NewOrderRepository(tx)
		order, err := orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsPending() {
			return &apperrors.OrderStateError{OrderID: order.ID, Status: string(order.Status)}
		}
		ok, err := orders.Transition(ctx, order.ID, models.OrderDenied, a.opts.now())
		if err != nil {
			return err
		}
		if !ok {
			return resolvedOrderError(ctx, orders, order.ID)
		}
		denied, err = orders.GetByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	a.opts.metrics.OrderTransition(string(models.OrderDenied))
	a.opts.publish(orderEvent(realtime.EventOrderDenied, denied))
	a.opts.logger.Info("Drink order denied", zap.Uint("order_id", orderID))
	return denied, nil
}

// Pending lists orders awaiting a decision, oldest first.
func (a *Approvals) Pending(ctx context.Context, limit int) ([]models.DrinkOrder, error) {
	return repository.NewOrderRepository(a.db).ListPending(ctx, limit)
}

// List returns orders matching filter, newest first.
func (a *Approvals) List(ctx context.Context, filter repository.OrderFilter) ([]models.DrinkOrder, error) {
	return repository.NewOrderRepository(a.db).List(ctx, filter)
}

func orderEvent(eventType string, order *models.DrinkOrder) realtime.Event {
	event := realtime.Event{
		Type:         eventType,
		OrderID:      order.ID,
		PersonID:     order.PersonID,
		Quantity:     order.Quantity,
		ServingPoint: order.ServingPoint,
		Status:       string(order.Status),
	}
	if order.Person != nil {
		event.PersonName = order.Person.FullName()
	}
	if order.DrinkType != nil {
		event.Drink = order.DrinkType.Name
	}
	return event
}

// resolvedOrderError reports an order that left pending after it was read,
// with the status it ended up in.
func resolvedOrderError(ctx context.Context, orders *repository.OrderRepository, id uint) error {
	order, err := orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return &apperrors.OrderStateError{OrderID: id, Status: string(order.Status)}
}
