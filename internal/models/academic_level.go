package models

import "time"

// AcademicLevel is a tier of schooling (elementary, senior high, college).
// Each level carries the grading scale bounds that apply to its subjects:
// 1.0-5.0 inverted scales for college/senior-high, 0-100 percentage scales
// for basic education.
type AcademicLevel struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	ScaleMin  float64   `db:"scale_min" json:"scale_min"`
	ScaleMax  float64   `db:"scale_max" json:"scale_max"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
