package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukita/gradebook-api/internal/models"
	"github.com/edukita/gradebook-api/pkg/config"
	appErrors "github.com/edukita/gradebook-api/pkg/errors"
)

type gradeRecordFixture struct {
	records     *mockGradeRecordStore
	assignments *mockAssignmentStore
	svc         *GradeRecordService
	now         time.Time
}

func newGradeRecordFixture() *gradeRecordFixture {
	f := &gradeRecordFixture{
		records:     newMockGradeRecordStore(),
		assignments: &mockAssignmentStore{assigned: map[string]bool{"teacher-1/subj-1": true}},
		now:         time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC),
	}
	f.svc = NewGradeRecordService(f.records, f.assignments, nil, nil, config.IngestConfig{})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *gradeRecordFixture) seedRecord(t *testing.T, createdAt time.Time, submitted bool) string {
	t.Helper()
	record := &models.GradeRecord{
		StudentID:       "stu-1",
		SubjectID:       "subj-1",
		AcademicLevelID: "level-11",
		SchoolYear:      "2025/2026",
		Value:           80,
		CreatedBy:       "teacher-1",
		UpdatedBy:       "teacher-1",
		CreatedAt:       createdAt,
	}
	created, err := f.records.Create(context.Background(), record)
	require.NoError(t, err)
	require.True(t, created)
	if submitted {
		require.NoError(t, f.records.SetSubmitted(context.Background(), record.ID, createdAt, "teacher-1"))
	}
	return record.ID
}

func TestSubmitLocksEditableRecord(t *testing.T) {
	f := newGradeRecordFixture()
	id := f.seedRecord(t, f.now.Add(-time.Hour), false)

	result, err := f.svc.Submit(context.Background(), SubmitGradesRequest{
		TeacherID: "teacher-1",
		RecordIDs: []string{id},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Empty(t, result.Failures)
	assert.True(t, f.records.byRecordID(id).IsSubmitted)
}

func TestSubmitRejectsExpiredAndAlreadySubmitted(t *testing.T) {
	f := newGradeRecordFixture()
	submitted := f.seedRecord(t, f.now.Add(-time.Hour), true)

	expired := &models.GradeRecord{
		StudentID: "stu-2", SubjectID: "subj-1", AcademicLevelID: "level-11",
		SchoolYear: "2025/2026", Value: 70,
		CreatedAt: f.now.Add(-(5*24*time.Hour + time.Hour)),
	}
	created, err := f.records.Create(context.Background(), expired)
	require.NoError(t, err)
	require.True(t, created)

	result, err := f.svc.Submit(context.Background(), SubmitGradesRequest{
		TeacherID: "teacher-1",
		RecordIDs: []string{submitted, expired.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, "already submitted for validation", result.Failures[0].Reason)
	assert.Equal(t, "edit window expired", result.Failures[1].Reason)
}

func TestSubmitRejectsUnassignedTeacher(t *testing.T) {
	f := newGradeRecordFixture()
	id := f.seedRecord(t, f.now.Add(-time.Hour), false)

	result, err := f.svc.Submit(context.Background(), SubmitGradesRequest{
		TeacherID: "teacher-2",
		RecordIDs: []string{id},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "not assigned to subject", result.Failures[0].Reason)
	assert.False(t, f.records.byRecordID(id).IsSubmitted)
}

func TestUnsubmitRevertsLockedRecord(t *testing.T) {
	f := newGradeRecordFixture()
	id := f.seedRecord(t, f.now.Add(-time.Hour), true)

	result, err := f.svc.Unsubmit(context.Background(), SubmitGradesRequest{
		TeacherID: "teacher-1",
		RecordIDs: []string{id},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.False(t, f.records.byRecordID(id).IsSubmitted)
	assert.Nil(t, f.records.byRecordID(id).SubmittedAt)
}

func TestUnsubmitRejectsExpiredRecord(t *testing.T) {
	f := newGradeRecordFixture()
	id := f.seedRecord(t, f.now.Add(-(5*24*time.Hour + time.Hour)), false)

	result, err := f.svc.Unsubmit(context.Background(), SubmitGradesRequest{
		TeacherID: "teacher-1",
		RecordIDs: []string{id},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "edit window expired", result.Failures[0].Reason)
}

func TestDeleteEditableRecord(t *testing.T) {
	f := newGradeRecordFixture()
	id := f.seedRecord(t, f.now.Add(-time.Hour), false)

	require.NoError(t, f.svc.Delete(context.Background(), id, "teacher-1"))
	assert.Nil(t, f.records.byRecordID(id))
}

func TestDeleteRejectsLockedRecord(t *testing.T) {
	f := newGradeRecordFixture()
	id := f.seedRecord(t, f.now.Add(-time.Hour), true)

	err := f.svc.Delete(context.Background(), id, "teacher-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrGradeLocked.Code, appErr.Code)
	assert.NotNil(t, f.records.byRecordID(id))
}

func TestDeleteRejectsExpiredRecord(t *testing.T) {
	f := newGradeRecordFixture()
	id := f.seedRecord(t, f.now.Add(-(5*24*time.Hour + time.Hour)), false)

	err := f.svc.Delete(context.Background(), id, "teacher-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrEditWindowExpired.Code, appErr.Code)
}

func TestDeleteMissingRecord(t *testing.T) {
	f := newGradeRecordFixture()

	err := f.svc.Delete(context.Background(), "rec-404", "teacher-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestListReturnsPagination(t *testing.T) {
	f := newGradeRecordFixture()
	f.seedRecord(t, f.now.Add(-time.Hour), false)

	records, page, err := f.svc.List(context.Background(), models.GradeRecordFilter{SubjectID: "subj-1"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	require.NotNil(t, page)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalCount)
}
