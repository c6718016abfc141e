package models

import "time"

// GradeRecordKey is the natural key identifying at most one grade record:
// (student, subject, academic level, grading period or null, school year).
type GradeRecordKey struct {
	StudentID       string
	SubjectID       string
	AcademicLevelID string
	GradingPeriodID *string
	SchoolYear      string
}

// GradeRecord is the persisted grade fact. It is created on first successful
// upsert of its key and mutated only while editable; the ingestion pipeline
// never deletes it.
type GradeRecord struct {
	ID              string     `db:"id" json:"id"`
	StudentID       string     `db:"student_id" json:"student_id"`
	SubjectID       string     `db:"subject_id" json:"subject_id"`
	AcademicLevelID string     `db:"academic_level_id" json:"academic_level_id"`
	GradingPeriodID *string    `db:"grading_period_id" json:"grading_period_id,omitempty"`
	SchoolYear      string     `db:"school_year" json:"school_year"`
	Value           float64    `db:"value" json:"value"`
	CreatedBy       string     `db:"created_by" json:"created_by"`
	UpdatedBy       string     `db:"updated_by" json:"updated_by"`
	IsSubmitted     bool       `db:"is_submitted_for_validation" json:"is_submitted_for_validation"`
	SubmittedAt     *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Key returns the record's natural key.
func (r *GradeRecord) Key() GradeRecordKey {
	return GradeRecordKey{
		StudentID:       r.StudentID,
		SubjectID:       r.SubjectID,
		AcademicLevelID: r.AcademicLevelID,
		GradingPeriodID: r.GradingPeriodID,
		SchoolYear:      r.SchoolYear,
	}
}

// GradeRecordFilter captures filtering criteria for listing grade records.
type GradeRecordFilter struct {
	StudentID       string
	SubjectID       string
	AcademicLevelID string
	GradingPeriodID string
	SchoolYear      string
	Page            int
	PageSize        int
}
