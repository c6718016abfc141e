package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edukita/gradebook-api/internal/models"
)

// GradeRecordRepository handles grade record persistence. A unique index on
// the natural key (student, subject, academic level, grading period, school
// year) backs the conditional writes here, so two concurrent uploads racing
// on the same key cannot create duplicates.
type GradeRecordRepository struct {
	db *sqlx.DB
}

// NewGradeRecordRepository creates a new grade record repository.
func NewGradeRecordRepository(db *sqlx.DB) *GradeRecordRepository {
	return &GradeRecordRepository{db: db}
}

const gradeRecordColumns = `id, student_id, subject_id, academic_level_id, grading_period_id, school_year,
        value, created_by, updated_by, is_submitted_for_validation, submitted_at, created_at, updated_at`

// FindByKey returns the record for a natural key, sql.ErrNoRows when none
// exists. The nullable grading period is matched with IS NOT DISTINCT FROM so
// a null period is a key value, not a wildcard.
func (r *GradeRecordRepository) FindByKey(ctx context.Context, key models.GradeRecordKey) (*models.GradeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_records
        WHERE student_id = $1 AND subject_id = $2 AND academic_level_id = $3
          AND school_year = $4 AND grading_period_id IS NOT DISTINCT FROM $5`, gradeRecordColumns)
	var record models.GradeRecord
	if err := r.db.GetContext(ctx, &record, query, key.StudentID, key.SubjectID, key.AcademicLevelID, key.SchoolYear, key.GradingPeriodID); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByID returns a record by id.
func (r *GradeRecordRepository) FindByID(ctx context.Context, id string) (*models.GradeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_records WHERE id = $1`, gradeRecordColumns)
	var record models.GradeRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a record for a key that has none yet. Returns false when a
// concurrent writer created the key first; the caller then re-reads and
// follows the update path.
func (r *GradeRecordRepository) Create(ctx context.Context, record *models.GradeRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO grade_records (id, student_id, subject_id, academic_level_id, grading_period_id, school_year,
        value, created_by, updated_by, is_submitted_for_validation, submitted_at, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :academic_level_id, :grading_period_id, :school_year,
        :value, :created_by, :updated_by, :is_submitted_for_validation, :submitted_at, :created_at, :updated_at)
        ON CONFLICT DO NOTHING`
	result, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return false, fmt.Errorf("create grade record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create grade record: %w", err)
	}
	return affected > 0, nil
}

// UpdateValue overwrites a record's value, guarded by the same predicate the
// edit-lock state machine derives: not submitted and created at or after the
// cutoff, so a record exactly at the window boundary is still writable.
// Returns false when the guard rejected the write, leaving the stored value
// untouched.
func (r *GradeRecordRepository) UpdateValue(ctx context.Context, id string, value float64, updatedBy string, createdAfter time.Time) (bool, error) {
	const query = `UPDATE grade_records
        SET value = $1, updated_by = $2, updated_at = $3
        WHERE id = $4 AND NOT is_submitted_for_validation AND created_at >= $5`
	result, err := r.db.ExecContext(ctx, query, value, updatedBy, time.Now().UTC(), id, createdAfter)
	if err != nil {
		return false, fmt.Errorf("update grade record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update grade record: %w", err)
	}
	return affected > 0, nil
}

// SetSubmitted marks a record as submitted for validation.
func (r *GradeRecordRepository) SetSubmitted(ctx context.Context, id string, submittedAt time.Time, updatedBy string) error {
	const query = `UPDATE grade_records
        SET is_submitted_for_validation = TRUE, submitted_at = $1, updated_by = $2, updated_at = $3
        WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, submittedAt, updatedBy, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("submit grade record: %w", err)
	}
	return nil
}

// ClearSubmitted reverts a submitted record to editable, clearing both
// submission fields.
func (r *GradeRecordRepository) ClearSubmitted(ctx context.Context, id string, updatedBy string) error {
	const query = `UPDATE grade_records
        SET is_submitted_for_validation = FALSE, submitted_at = NULL, updated_by = $1, updated_at = $2
        WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, updatedBy, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("unsubmit grade record: %w", err)
	}
	return nil
}

// Delete removes a record. The lock check happens in the service; deletion is
// never part of the ingestion pipeline.
func (r *GradeRecordRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM grade_records WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete grade record: %w", err)
	}
	return nil
}

// List returns records matching the filter plus the total count.
func (r *GradeRecordRepository) List(ctx context.Context, filter models.GradeRecordFilter) ([]models.GradeRecord, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		where += fmt.Sprintf(" AND subject_id = $%d", len(args))
	}
	if filter.AcademicLevelID != "" {
		args = append(args, filter.AcademicLevelID)
		where += fmt.Sprintf(" AND academic_level_id = $%d", len(args))
	}
	if filter.GradingPeriodID != "" {
		args = append(args, filter.GradingPeriodID)
		where += fmt.Sprintf(" AND grading_period_id = $%d", len(args))
	}
	if filter.SchoolYear != "" {
		args = append(args, filter.SchoolYear)
		where += fmt.Sprintf(" AND school_year = $%d", len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := fmt.Sprintf("SELECT %s FROM grade_records%s ORDER BY updated_at DESC LIMIT %d OFFSET %d",
		gradeRecordColumns, where, pageSize, (page-1)*pageSize)
	var records []models.GradeRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grade records: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM grade_records" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grade records: %w", err)
	}
	return records, total, nil
}
