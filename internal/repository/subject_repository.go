package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edukita/gradebook-api/internal/models"
)

// SubjectRepository handles subject persistence.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByCodeOrID resolves a subject by internal id or subject code. Returns
// sql.ErrNoRows when neither matches.
func (r *SubjectRepository) FindByCodeOrID(ctx context.Context, key string) (*models.Subject, error) {
	const query = `SELECT id, code, name, academic_level_id, active, created_at, updated_at
        FROM subjects WHERE id = $1 OR code = $1 LIMIT 1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, key); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListByLevel returns active subjects for an academic level.
func (r *SubjectRepository) ListByLevel(ctx context.Context, academicLevelID string) ([]models.Subject, error) {
	const query = `SELECT id, code, name, academic_level_id, active, created_at, updated_at
        FROM subjects WHERE academic_level_id = $1 AND active ORDER BY code ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, academicLevelID); err != nil {
		return nil, fmt.Errorf("list subjects by level: %w", err)
	}
	return subjects, nil
}
