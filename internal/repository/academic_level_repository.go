package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/edukita/gradebook-api/internal/ingest"
	"github.com/edukita/gradebook-api/internal/models"
)

// AcademicLevelRepository handles academic level reference data.
type AcademicLevelRepository struct {
	db *sqlx.DB
}

// NewAcademicLevelRepository creates a new academic level repository.
func NewAcademicLevelRepository(db *sqlx.DB) *AcademicLevelRepository {
	return &AcademicLevelRepository{db: db}
}

// FindByID returns an academic level by id.
func (r *AcademicLevelRepository) FindByID(ctx context.Context, id string) (*models.AcademicLevel, error) {
	const query = `SELECT id, code, name, scale_min, scale_max, created_at, updated_at
        FROM academic_levels WHERE id = $1`
	var level models.AcademicLevel
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		return nil, err
	}
	return &level, nil
}

// GetScale returns the grading scale bounds active for an academic level.
func (r *AcademicLevelRepository) GetScale(ctx context.Context, id string) (ingest.Scale, error) {
	const query = `SELECT scale_min, scale_max FROM academic_levels WHERE id = $1`
	var row struct {
		Min float64 `db:"scale_min"`
		Max float64 `db:"scale_max"`
	}
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return ingest.Scale{}, err
	}
	return ingest.Scale{Min: row.Min, Max: row.Max}, nil
}
