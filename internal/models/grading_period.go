package models

import "time"

// Grading period code suffixes. Midterm and final-term component periods are
// identified by a naming convention on their code, scoped to an academic
// level (e.g. "SEM1_M", "SEM1_F").
const (
	PeriodSuffixMidterm   = "_M"
	PeriodSuffixFinalTerm = "_F"
)

// GradingPeriod is a named subdivision of a school year.
type GradingPeriod struct {
	ID              string    `db:"id" json:"id"`
	AcademicLevelID string    `db:"academic_level_id" json:"academic_level_id"`
	Code            string    `db:"code" json:"code"`
	Name            string    `db:"name" json:"name"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
