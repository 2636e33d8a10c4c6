package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/models"
)

// OrderRepository handles database operations for drink orders
type OrderRepository struct {
	DB *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.DrinkOrder) error {
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create drink order for person ID %d: %w", order.PersonID, err)
	}
	return nil
}

// GetByID retrieves an order with its person and drink preloaded
func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*models.DrinkOrder, error) {
	var order models.DrinkOrder
	err := r.DB.WithContext(ctx).Preload("Person").Preload("DrinkType").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("drink order", strconv.FormatUint(uint64(id), 10))
		}
		return nil, fmt.Errorf("failed to get drink order by ID %d: %w", id, err)
	}
	return &order, nil
}

// ListPending returns pending orders oldest first
func (r *OrderRepository) ListPending(ctx context.Context, limit int) ([]models.DrinkOrder, error) {
	var orders []models.DrinkOrder
	query := r.DB.WithContext(ctx).Preload("Person").Preload("DrinkType").
		Where("status = ?", models.OrderPending).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending drink orders: %w", err)
	}
	return orders, nil
}

// ListRecent returns orders of any status, newest first
func (r *OrderRepository) ListRecent(ctx context.Context, limit int) ([]models.DrinkOrder, error) {
	var orders []models.DrinkOrder
	query := r.DB.WithContext(ctx).Preload("Person").Preload("DrinkType").Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent drink orders: %w", err)
	}
	return orders, nil
}

// List returns orders matching filter, newest first
func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.DrinkOrder, error) {
	var orders []models.DrinkOrder
	query := r.DB.WithContext(ctx).Preload("Person").Preload("DrinkType").Order("drink_orders.created_at DESC, drink_orders.id DESC")
	if filter.Status != "" {
		query = query.Where("drink_orders.status = ?", filter.Status)
	}
	if filter.ServingPoint != "" {
		query = query.Where("LOWER(drink_orders.serving_point) = ?", strings.ToLower(filter.ServingPoint))
	}
	if filter.FirstName != "" && filter.LastName != "" {
		query = query.Joins("JOIN people ON people.id = drink_orders.person_id").
			Where("LOWER(people.first_name) = ? AND LOWER(people.last_name) = ?",
				strings.ToLower(filter.FirstName), strings.ToLower(filter.LastName))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list drink orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.DrinkOrder{}).Where("status = ?", models.OrderPending).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending drink orders: %w", err)
	}
	return count, nil
}

// Transition moves a pending order to status to. It returns false when the
// order was no longer pending.
func (r *OrderRepository) Transition(ctx context.Context, id uint, to models.OrderStatus, resolvedAt time.Time) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&models.DrinkOrder{}).
		Where("id = ? AND status = ?", id, models.OrderPending).
		Updates(map[string]interface{}{"status": to, "resolved_at": resolvedAt})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark drink order %d %s: %w", id, to, result.Error)
	}
	return result.RowsAffected == 1, nil
}
