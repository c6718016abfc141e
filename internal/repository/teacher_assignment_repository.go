package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edukita/gradebook-api/internal/models"
)

// TeacherAssignmentRepository persists teacher-subject assignments.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// IsAssigned reports whether the staff member holds an active assignment to
// the subject at the academic level.
func (r *TeacherAssignmentRepository) IsAssigned(ctx context.Context, teacherID, subjectID, academicLevelID string) (bool, error) {
	const query = `SELECT 1 FROM teacher_assignments
        WHERE teacher_id = $1 AND subject_id = $2 AND academic_level_id = $3 AND active LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, subjectID, academicLevelID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher assignment: %w", err)
	}
	return true, nil
}

// ListByTeacher returns assignments owned by a teacher.
func (r *TeacherAssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	const query = `SELECT id, teacher_id, subject_id, academic_level_id, school_year, active, created_at
        FROM teacher_assignments WHERE teacher_id = $1 ORDER BY created_at DESC`
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}

// Create inserts a new assignment.
func (r *TeacherAssignmentRepository) Create(ctx context.Context, assignment *models.TeacherAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_assignments (id, teacher_id, subject_id, academic_level_id, school_year, active, created_at)
        VALUES (:id, :teacher_id, :subject_id, :academic_level_id, :school_year, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create teacher assignment: %w", err)
	}
	return nil
}
