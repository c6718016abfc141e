package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edukita/gradebook-api/internal/models"
)

// StudentRepository handles student persistence.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByKey resolves a student by internal id or external student number.
// Returns sql.ErrNoRows when neither matches.
func (r *StudentRepository) FindByKey(ctx context.Context, key string) (*models.Student, error) {
	const query = `SELECT id, student_no, full_name, active, created_at, updated_at
        FROM students WHERE id = $1 OR student_no = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, key); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByID returns a student by internal id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, student_no, full_name, active, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListBySubjectYear returns students having a grade record for the subject
// and school year, for roster-style views of uploaded grades.
func (r *StudentRepository) ListBySubjectYear(ctx context.Context, subjectID, schoolYear string) ([]models.Student, error) {
	const query = `SELECT DISTINCT s.id, s.student_no, s.full_name, s.active, s.created_at, s.updated_at
        FROM students s
        JOIN grade_records gr ON gr.student_id = s.id
        WHERE gr.subject_id = $1 AND gr.school_year = $2
        ORDER BY s.full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, subjectID, schoolYear); err != nil {
		return nil, fmt.Errorf("list students by subject: %w", err)
	}
	return students, nil
}
