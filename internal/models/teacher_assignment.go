package models

import "time"

// TeacherAssignment records that a staff member teaches a subject at an
// academic level for a school year. The ingestion pipeline consults it as a
// capability check before touching any grade record.
type TeacherAssignment struct {
	ID              string    `db:"id" json:"id"`
	TeacherID       string    `db:"teacher_id" json:"teacher_id"`
	SubjectID       string    `db:"subject_id" json:"subject_id"`
	AcademicLevelID string    `db:"academic_level_id" json:"academic_level_id"`
	SchoolYear      string    `db:"school_year" json:"school_year"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
