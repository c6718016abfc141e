package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/edukita/gradebook-api/internal/models"
)

func newGradeRecordRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func gradeRecordRows(id string, submitted bool, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "subject_id", "academic_level_id", "grading_period_id", "school_year",
		"value", "created_by", "updated_by", "is_submitted_for_validation", "submitted_at", "created_at", "updated_at",
	}).AddRow(id, "stu-1", "subj-1", "level-11", nil, "2025/2026", 80.0, "teacher-1", "teacher-1", submitted, nil, createdAt, createdAt)
}

func TestGradeRecordRepositoryFindByKeyNullPeriod(t *testing.T) {
	db, mock, cleanup := newGradeRecordRepoMock(t)
	defer cleanup()

	repo := NewGradeRecordRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("grading_period_id IS NOT DISTINCT FROM $5")).
		WithArgs("stu-1", "subj-1", "level-11", "2025/2026", nil).
		WillReturnRows(gradeRecordRows("rec-1", false, time.Now().UTC()))

	record, err := repo.FindByKey(context.Background(), models.GradeRecordKey{
		StudentID:       "stu-1",
		SubjectID:       "subj-1",
		AcademicLevelID: "level-11",
		SchoolYear:      "2025/2026",
	})
	require.NoError(t, err)
	require.Equal(t, "rec-1", record.ID)
	require.Nil(t, record.GradingPeriodID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRecordRepositoryFindByKeyNoRows(t *testing.T) {
	db, mock, cleanup := newGradeRecordRepoMock(t)
	defer cleanup()

	repo := NewGradeRecordRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByKey(context.Background(), models.GradeRecordKey{
		StudentID: "stu-1", SubjectID: "subj-1", AcademicLevelID: "level-11", SchoolYear: "2025/2026",
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRecordRepositoryCreateReportsConflict(t *testing.T) {
	db, mock, cleanup := newGradeRecordRepoMock(t)
	defer cleanup()

	repo := NewGradeRecordRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grade_records")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grade_records")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	record := &models.GradeRecord{
		StudentID:       "stu-1",
		SubjectID:       "subj-1",
		AcademicLevelID: "level-11",
		SchoolYear:      "2025/2026",
		Value:           80,
		CreatedBy:       "teacher-1",
		UpdatedBy:       "teacher-1",
	}
	created, err := repo.Create(context.Background(), record)
	require.NoError(t, err)
	require.True(t, created)
	require.NotEmpty(t, record.ID)

	created, err = repo.Create(context.Background(), record)
	require.NoError(t, err)
	require.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRecordRepositoryUpdateValueGuard(t *testing.T) {
	db, mock, cleanup := newGradeRecordRepoMock(t)
	defer cleanup()

	repo := NewGradeRecordRepository(db)
	cutoff := time.Now().UTC().Add(-5 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("NOT is_submitted_for_validation AND created_at >= $5")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	updated, err := repo.UpdateValue(context.Background(), "rec-1", 92, "teacher-1", cutoff)
	require.NoError(t, err)
	require.True(t, updated)

	mock.ExpectExec(regexp.QuoteMeta("NOT is_submitted_for_validation AND created_at >= $5")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	updated, err = repo.UpdateValue(context.Background(), "rec-1", 92, "teacher-1", cutoff)
	require.NoError(t, err)
	require.False(t, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRecordRepositorySubmitRoundTrip(t *testing.T) {
	db, mock, cleanup := newGradeRecordRepoMock(t)
	defer cleanup()

	repo := NewGradeRecordRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("SET is_submitted_for_validation = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetSubmitted(context.Background(), "rec-1", now, "teacher-1"))

	mock.ExpectExec(regexp.QuoteMeta("SET is_submitted_for_validation = FALSE, submitted_at = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ClearSubmitted(context.Background(), "rec-1", "teacher-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRecordRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newGradeRecordRepoMock(t)
	defer cleanup()

	repo := NewGradeRecordRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("AND subject_id = $1")).
		WithArgs("subj-1", "2025/2026").
		WillReturnRows(gradeRecordRows("rec-1", false, time.Now().UTC()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM grade_records")).
		WithArgs("subj-1", "2025/2026").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.GradeRecordFilter{
		SubjectID:  "subj-1",
		SchoolYear: "2025/2026",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
