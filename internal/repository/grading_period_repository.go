package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/edukita/gradebook-api/internal/models"
)

// GradingPeriodRepository handles grading period reference data.
type GradingPeriodRepository struct {
	db *sqlx.DB
}

// NewGradingPeriodRepository creates a new grading period repository.
func NewGradingPeriodRepository(db *sqlx.DB) *GradingPeriodRepository {
	return &GradingPeriodRepository{db: db}
}

// FindByLevelAndSuffix resolves a component period by its code suffix
// ("_M" midterm, "_F" final term) within an academic level. Ordering by code
// keeps the pick stable when more than one period matches; sql.ErrNoRows when
// none does.
func (r *GradingPeriodRepository) FindByLevelAndSuffix(ctx context.Context, academicLevelID, suffix string) (*models.GradingPeriod, error) {
	const query = `SELECT id, academic_level_id, code, name, created_at, updated_at
        FROM grading_periods
        WHERE academic_level_id = $1 AND code LIKE '%' || $2
        ORDER BY code ASC LIMIT 1`
	var period models.GradingPeriod
	if err := r.db.GetContext(ctx, &period, query, academicLevelID, suffix); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindByLevelAndCode resolves a grading period by exact code within an
// academic level.
func (r *GradingPeriodRepository) FindByLevelAndCode(ctx context.Context, academicLevelID, code string) (*models.GradingPeriod, error) {
	const query = `SELECT id, academic_level_id, code, name, created_at, updated_at
        FROM grading_periods
        WHERE academic_level_id = $1 AND code = $2 LIMIT 1`
	var period models.GradingPeriod
	if err := r.db.GetContext(ctx, &period, query, academicLevelID, code); err != nil {
		return nil, err
	}
	return &period, nil
}
