package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edukita/gradebook-api/internal/ingest"
	"github.com/edukita/gradebook-api/internal/models"
	"github.com/edukita/gradebook-api/pkg/config"
	appErrors "github.com/edukita/gradebook-api/pkg/errors"
)

type gradeRecordRepo interface {
	List(ctx context.Context, filter models.GradeRecordFilter) ([]models.GradeRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.GradeRecord, error)
	SetSubmitted(ctx context.Context, id string, submittedAt time.Time, updatedBy string) error
	ClearSubmitted(ctx context.Context, id string, updatedBy string) error
	Delete(ctx context.Context, id string) error
}

// SubmitGradesRequest asks to submit a set of grade records for validation.
type SubmitGradesRequest struct {
	TeacherID string   `json:"teacher_id" validate:"required"`
	RecordIDs []string `json:"record_ids" validate:"required,min=1,dive,required"`
}

// SubmitGradesResult reports per-record failures alongside the success count.
type SubmitGradesResult struct {
	SuccessCount int                 `json:"success_count"`
	Failures     []GradeStateFailure `json:"failures,omitempty"`
}

// GradeStateFailure captures a record that could not change state.
type GradeStateFailure struct {
	RecordID string `json:"record_id"`
	Reason   string `json:"reason"`
}

// GradeRecordService exposes grade record operations outside the ingestion
// pipeline. Submission for validation locks records against further edits;
// unsubmission is only reachable from the locked state, never from an
// expired one.
type GradeRecordService struct {
	records     gradeRecordRepo
	assignments assignmentChecker
	validator   *validator.Validate
	logger      *zap.Logger
	editWindow  time.Duration
	now         func() time.Time
}

// NewGradeRecordService constructs a GradeRecordService.
func NewGradeRecordService(records gradeRecordRepo, assignments assignmentChecker, validate *validator.Validate, logger *zap.Logger, cfg config.IngestConfig) *GradeRecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	editWindow := cfg.EditWindow
	if editWindow <= 0 {
		editWindow = ingest.DefaultEditWindow
	}
	return &GradeRecordService{
		records:     records,
		assignments: assignments,
		validator:   validate,
		logger:      logger,
		editWindow:  editWindow,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns grade records matching the filter.
func (s *GradeRecordService) List(ctx context.Context, filter models.GradeRecordFilter) ([]models.GradeRecord, *models.Pagination, error) {
	records, total, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade records")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Submit locks editable records pending validation. Records already locked,
// expired, or outside the teacher's assignments are reported per-record and
// do not stop the rest.
func (s *GradeRecordService) Submit(ctx context.Context, req SubmitGradesRequest) (*SubmitGradesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submit payload")
	}

	result := &SubmitGradesResult{}
	now := s.now()
	for _, id := range req.RecordIDs {
		record, err := s.loadOwnedRecord(ctx, id, req.TeacherID, result)
		if record == nil || err != nil {
			continue
		}

		switch ingest.Evaluate(record.CreatedAt, record.IsSubmitted, now, s.editWindow) {
		case ingest.StateLocked:
			result.Failures = append(result.Failures, GradeStateFailure{RecordID: id, Reason: "already submitted for validation"})
		case ingest.StateExpired:
			result.Failures = append(result.Failures, GradeStateFailure{RecordID: id, Reason: "edit window expired"})
		default:
			if err := s.records.SetSubmitted(ctx, id, now, req.TeacherID); err != nil {
				result.Failures = append(result.Failures, GradeStateFailure{RecordID: id, Reason: "internal error: " + err.Error()})
				continue
			}
			result.SuccessCount++
		}
	}
	return result, nil
}

// Unsubmit reverts locked records to editable. Only the locked state is
// reversible; expired records stay immutable to staff.
func (s *GradeRecordService) Unsubmit(ctx context.Context, req SubmitGradesRequest) (*SubmitGradesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unsubmit payload")
	}

	result := &SubmitGradesResult{}
	now := s.now()
	for _, id := range req.RecordIDs {
		record, err := s.loadOwnedRecord(ctx, id, req.TeacherID, result)
		if record == nil || err != nil {
			continue
		}

		if !record.IsSubmitted {
			state := ingest.Evaluate(record.CreatedAt, false, now, s.editWindow)
			if state == ingest.StateExpired {
				result.Failures = append(result.Failures, GradeStateFailure{RecordID: id, Reason: "edit window expired"})
			} else {
				result.Failures = append(result.Failures, GradeStateFailure{RecordID: id, Reason: "not submitted for validation"})
			}
			continue
		}

		if err := s.records.ClearSubmitted(ctx, id, req.TeacherID); err != nil {
			result.Failures = append(result.Failures, GradeStateFailure{RecordID: id, Reason: "internal error: " + err.Error()})
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// Delete removes a record, subject to the same lock evaluation the ingestion
// pipeline applies to updates.
func (s *GradeRecordService) Delete(ctx context.Context, id, teacherID string) error {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade record")
	}

	assigned, err := s.assignments.IsAssigned(ctx, teacherID, record.SubjectID, record.AcademicLevelID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if !assigned {
		return appErrors.Clone(appErrors.ErrNotAssigned, "")
	}

	switch ingest.Evaluate(record.CreatedAt, record.IsSubmitted, s.now(), s.editWindow) {
	case ingest.StateLocked:
		return appErrors.Clone(appErrors.ErrGradeLocked, "")
	case ingest.StateExpired:
		return appErrors.Clone(appErrors.ErrEditWindowExpired, "")
	}

	if err := s.records.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade record")
	}
	s.logger.Info("grade record deleted", zap.String("record_id", id), zap.String("teacher_id", teacherID))
	return nil
}

// loadOwnedRecord fetches a record and verifies the teacher's assignment,
// appending a failure entry when either step rejects.
func (s *GradeRecordService) loadOwnedRecord(ctx context.Context, id, teacherID string, result *SubmitGradesResult) (*models.GradeRecord, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			result.Failures = append(result.Failures, GradeStateFailure{RecordID: id, Reason: "grade record not found"})
			return nil, nil
		}
		result.Failures = append(result.Failures, GradeStateFailure{RecordID: id, Reason: "internal error: " + err.Error()})
		return nil, err
	}

	assigned, err := s.assignments.IsAssigned(ctx, teacherID, record.SubjectID, record.AcademicLevelID)
	if err != nil {
		result.Failures = append(result.Failures, GradeStateFailure{RecordID: id, Reason: "internal error: " + err.Error()})
		return nil, err
	}
	if !assigned {
		result.Failures = append(result.Failures, GradeStateFailure{RecordID: id, Reason: "not assigned to subject"})
		return nil, nil
	}
	return record, nil
}
