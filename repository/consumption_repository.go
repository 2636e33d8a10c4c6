package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/models"
)

// ConsumptionRepository appends to and reads the consumption log
type ConsumptionRepository struct {
	DB *gorm.DB
}

func NewConsumptionRepository(db *gorm.DB) *ConsumptionRepository {
	return &ConsumptionRepository{DB: db}
}

func (r *ConsumptionRepository) Create(ctx context.Context, record *models.ConsumptionRecord) error {
	if err := r.DB.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to record %s for person ID %d: %w", record.Kind, record.PersonID, err)
	}
	return nil
}

// ListRecent returns the newest records with their person preloaded
func (r *ConsumptionRepository) ListRecent(ctx context.Context, limit int) ([]models.ConsumptionRecord, error) {
	var records []models.ConsumptionRecord
	query := r.DB.WithContext(ctx).Preload("Person").Order("consumed_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list consumption records: %w", err)
	}
	return records, nil
}

func (r *ConsumptionRepository) ListForPerson(ctx context.Context, personID uint, limit int) ([]models.ConsumptionRecord, error) {
	var records []models.ConsumptionRecord
	query := r.DB.WithContext(ctx).Where("person_id = ?", personID).Order("consumed_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list consumption records for person ID %d: %w", personID, err)
	}
	return records, nil
}

func (r *ConsumptionRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.ConsumptionRecord{}).Where("consumed_at >= ?", since).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count consumption records: %w", err)
	}
	return count, nil
}
