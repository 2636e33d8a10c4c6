package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/camden-git/eventmealsbackend/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// RegistrationTallies counts people per event-registration bucket.
type RegistrationTallies struct {
	Total          int64 `json:"total"`
	FridayLunch    int64 `json:"friday_lunch"`
	SaturdayLunch  int64 `json:"saturday_lunch"`
	BBQ            int64 `json:"bbq"`
	AllMeals       int64 `json:"all_meals"` // no event flags, some lunch or dinner allowance left
	NoMealsAccess  int64 `json:"no_meals_access"`
	RestrictedOnly int64 `json:"restricted_only"` // Friday or Saturday lunch only
}

// StatsStore runs aggregate queries straight against the underlying sql.DB.
type StatsStore struct {
	DB *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{DB: db}
}

// RegistrationTallies computes per-flag counts over the whole registry
func (s *StatsStore) RegistrationTallies(ctx context.Context) (RegistrationTallies, error) {
	const noFlags = "has_friday_lunch = 0 AND has_saturday_lunch = 0 AND has_bbq = 0"
	queryBuilder := psql.Select(
		"COUNT(*)",
		"COALESCE(SUM(CASE WHEN has_friday_lunch = 1 THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN has_saturday_lunch = 1 THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN has_bbq = 1 THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN "+noFlags+" AND (lunches_remaining > 0 OR dinners_remaining > 0) THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN "+noFlags+" AND lunches_remaining <= 0 AND dinners_remaining <= 0 THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN (has_friday_lunch = 1 OR has_saturday_lunch = 1) THEN 1 ELSE 0 END), 0)",
	).From(models.Person{}.TableName())

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return RegistrationTallies{}, fmt.Errorf("failed to build SQL query for RegistrationTallies: %w", err)
	}

	var t RegistrationTallies
	err = s.DB.QueryRowContext(ctx, sqlStr, args...).Scan(
		&t.Total, &t.FridayLunch, &t.SaturdayLunch, &t.BBQ, &t.AllMeals, &t.NoMealsAccess, &t.RestrictedOnly,
	)
	if err != nil {
		return RegistrationTallies{}, fmt.Errorf("failed to query registration tallies: %w", err)
	}
	return t, nil
}

// MealTalliesSince counts consumption records per meal kind at or after since.
func (s *StatsStore) MealTalliesSince(ctx context.Context, since time.Time) (map[models.MealKind]int64, error) {
	queryBuilder := psql.Select("meal_kind", "COUNT(*)").
		From(models.ConsumptionRecord{}.TableName()).
		Where(sq.GtOrEq{"consumed_at": since}).
		GroupBy("meal_kind")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for MealTalliesSince: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal tallies: %w", err)
	}
	defer rows.Close()

	tallies := make(map[models.MealKind]int64, len(models.MealKinds))
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan meal tally row: %w", err)
		}
		tallies[models.MealKind(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meal tally rows: %w", err)
	}
	return tallies, nil
}

// OrderCountsSince counts orders in status resolved at or after since.
func (s *StatsStore) OrderCountsSince(ctx context.Context, status models.OrderStatus, since time.Time) (int64, error) {
	queryBuilder := psql.Select("COUNT(*)").
		From(models.DrinkOrder{}.TableName()).
		Where(sq.Eq{"status": string(status)}).
		Where(sq.GtOrEq{"resolved_at": since})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL query for OrderCountsSince: %w", err)
	}

	var count int64
	if err := s.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s orders: %w", status, err)
	}
	return count, nil
}
