package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edukita/gradebook-api/internal/ingest"
	"github.com/edukita/gradebook-api/internal/models"
	"github.com/edukita/gradebook-api/pkg/config"
	appErrors "github.com/edukita/gradebook-api/pkg/errors"
)

type studentResolver interface {
	FindByKey(ctx context.Context, key string) (*models.Student, error)
}

type subjectResolver interface {
	FindByCodeOrID(ctx context.Context, key string) (*models.Subject, error)
}

type assignmentChecker interface {
	IsAssigned(ctx context.Context, teacherID, subjectID, academicLevelID string) (bool, error)
}

type scaleProvider interface {
	GetScale(ctx context.Context, academicLevelID string) (ingest.Scale, error)
}

type periodResolver interface {
	FindByLevelAndSuffix(ctx context.Context, academicLevelID, suffix string) (*models.GradingPeriod, error)
	FindByLevelAndCode(ctx context.Context, academicLevelID, code string) (*models.GradingPeriod, error)
}

type gradeRecordWriter interface {
	FindByKey(ctx context.Context, key models.GradeRecordKey) (*models.GradeRecord, error)
	Create(ctx context.Context, record *models.GradeRecord) (bool, error)
	UpdateValue(ctx context.Context, id string, value float64, updatedBy string, createdAfter time.Time) (bool, error)
}

// ImportContext carries the request scope for one upload: the acting staff
// member and the academic coordinates rows are resolved against.
type ImportContext struct {
	TeacherID       string `json:"teacher_id" validate:"required"`
	SubjectID       string `json:"subject_id"`
	AcademicLevelID string `json:"academic_level_id" validate:"required"`
	SchoolYear      string `json:"school_year" validate:"required"`
	// GradingPeriodID is the default period for layouts that don't carry one
	// per row. Empty means the records are keyed with a null period.
	GradingPeriodID string `json:"grading_period_id"`
}

// IngestService drives the bulk grade ingestion pipeline: it streams rows out
// of an uploaded file, resolves and validates each one, and creates or
// updates at most one grade record per fact. Rows are processed strictly in
// file order on one goroutine; a row failure never aborts the batch.
type IngestService struct {
	students    studentResolver
	subjects    subjectResolver
	assignments assignmentChecker
	scales      scaleProvider
	periods     periodResolver
	records     gradeRecordWriter
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	editWindow  time.Duration
	maxRows     int
	now         func() time.Time
}

// NewIngestService constructs an IngestService.
func NewIngestService(
	students studentResolver,
	subjects subjectResolver,
	assignments assignmentChecker,
	scales scaleProvider,
	periods periodResolver,
	records gradeRecordWriter,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.IngestConfig,
) *IngestService {
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
	return &IngestService{
		students:    students,
		subjects:    subjects,
		assignments: assignments,
		scales:      scales,
		periods:     periods,
		records:     records,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		editWindow:  editWindow,
		maxRows:     cfg.MaxRows,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run processes one uploaded file and returns the row-indexed outcome report.
// A file that cannot be classified fails as a whole with FORMAT_ERROR before
// any row is touched; every other failure is row-scoped. Cancellation of ctx
// stops pulling further rows; rows already written stay written.
func (s *IngestService) Run(ctx context.Context, file io.Reader, ic ImportContext) (*ingest.BatchOutcome, error) {
	if err := s.validator.Struct(ic); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import context")
	}

	parser, err := ingest.NewParser(file)
	if err != nil {
		var formatErr *ingest.FormatError
		if errors.As(err, &formatErr) {
			return nil, appErrors.Wrap(err, appErrors.ErrFormat.Code, appErrors.ErrFormat.Status, formatErr.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}

	if parser.Format() != ingest.FormatMultiSubject && ic.SubjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject required for this file layout")
	}

	outcome := &ingest.BatchOutcome{Format: parser.Format()}
	processed := 0
	for {
		if ctx.Err() != nil {
			s.logger.Warn("import cancelled, stopping at current row",
				zap.Int("row", parser.RowNumber()))
			break
		}
		if s.maxRows > 0 && processed >= s.maxRows {
			s.logger.Warn("import row cap reached", zap.Int("max_rows", s.maxRows))
			break
		}

		row, err := parser.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			outcome.Append(ingest.RowOutcome{
				Row:    parser.RowNumber(),
				Status: ingest.StatusRejected,
				Reason: "internal error: " + err.Error(),
			})
			continue
		}
		processed++
		s.processRow(ctx, row, ic, outcome)
	}

	s.logger.Info("grade import finished",
		zap.String("format", string(outcome.Format)),
		zap.String("teacher_id", ic.TeacherID),
		zap.String("subject_id", ic.SubjectID),
		zap.Int("success", outcome.SuccessCount),
		zap.Int("errors", outcome.ErrorCount))

	if s.metrics != nil {
		s.metrics.ObserveImportBatch(string(outcome.Format))
	}
	return outcome, nil
}

// processRow runs one row through the upsert engine behind a bulkhead: a
// panic or stray failure is recorded against the row and the batch moves on.
func (s *IngestService) processRow(ctx context.Context, row *ingest.Row, ic ImportContext, outcome *ingest.BatchOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("row processing panicked", zap.Int("row", row.Number), zap.Any("panic", rec))
			s.record(outcome, row, ingest.RowOutcome{
				Row:    row.Number,
				Status: ingest.StatusRejected,
				Reason: fmt.Sprintf("internal error: %v", rec),
			})
		}
	}()

	for _, entry := range s.upsertRow(ctx, row, ic) {
		s.record(outcome, row, entry)
	}
}

func (s *IngestService) record(outcome *ingest.BatchOutcome, row *ingest.Row, entry ingest.RowOutcome) {
	outcome.Append(entry)
	if s.metrics != nil {
		s.metrics.ObserveImportRow(string(row.Format), string(entry.Status))
	}
}

func (s *IngestService) upsertRow(ctx context.Context, row *ingest.Row, ic ImportContext) []ingest.RowOutcome {
	if row.StudentKey == "" {
		return []ingest.RowOutcome{rejectRow(row, "missing student id")}
	}

	student, err := s.students.FindByKey(ctx, row.StudentKey)
	if errors.Is(err, sql.ErrNoRows) {
		return []ingest.RowOutcome{rejectRow(row, "student not found: "+row.StudentKey)}
	}
	if err != nil {
		return []ingest.RowOutcome{rejectRow(row, internalReason(err))}
	}

	subjectKey := row.SubjectCode
	if subjectKey == "" {
		subjectKey = ic.SubjectID
	}
	subject, err := s.subjects.FindByCodeOrID(ctx, subjectKey)
	if errors.Is(err, sql.ErrNoRows) {
		return []ingest.RowOutcome{rejectRow(row, "subject not found: "+subjectKey)}
	}
	if err != nil {
		return []ingest.RowOutcome{rejectRow(row, internalReason(err))}
	}

	assigned, err := s.assignments.IsAssigned(ctx, ic.TeacherID, subject.ID, ic.AcademicLevelID)
	if err != nil {
		return []ingest.RowOutcome{rejectRow(row, internalReason(err))}
	}
	if !assigned {
		return []ingest.RowOutcome{rejectRow(row, "not assigned to subject "+subject.Code)}
	}

	scale, err := s.scales.GetScale(ctx, ic.AcademicLevelID)
	if err != nil {
		return []ingest.RowOutcome{rejectRow(row, internalReason(err))}
	}

	if row.Format == ingest.FormatSubjectTemplate {
		return s.upsertTemplateRow(ctx, row, student, subject, scale, ic)
	}

	value, err := ingest.ParseGrade(row.Values[ingest.ComponentGrade], scale)
	if err != nil {
		return []ingest.RowOutcome{rejectRow(row, err.Error())}
	}

	periodID, err := s.resolvePeriod(ctx, row, ic)
	if err != nil {
		return []ingest.RowOutcome{rejectRow(row, err.Error())}
	}

	key := models.GradeRecordKey{
		StudentID:       student.ID,
		SubjectID:       subject.ID,
		AcademicLevelID: ic.AcademicLevelID,
		GradingPeriodID: periodID,
		SchoolYear:      ic.SchoolYear,
	}
	return []ingest.RowOutcome{s.upsertOne(ctx, row.Number, "", key, value, ic.TeacherID)}
}

// upsertTemplateRow fans a subject-template row out into up to two
// independent upserts, one per populated component. Each is validated and
// lock-checked on its own; one may succeed while the other is rejected.
func (s *IngestService) upsertTemplateRow(ctx context.Context, row *ingest.Row, student *models.Student, subject *models.Subject, scale ingest.Scale, ic ImportContext) []ingest.RowOutcome {
	if raw := row.Values[ingest.ComponentFinalGrade]; raw != "" {
		// Teacher-supplied final grades are carried for record-keeping but
		// never persisted; only midterm and final term are authoritative.
		s.logger.Info("final grade column ignored",
			zap.Int("row", row.Number),
			zap.String("student_id", student.ID),
			zap.String("value", raw))
	}

	components := []struct {
		name   string
		suffix string
	}{
		{ingest.ComponentMidterm, models.PeriodSuffixMidterm},
		{ingest.ComponentFinalTerm, models.PeriodSuffixFinalTerm},
	}

	var entries []ingest.RowOutcome
	for _, comp := range components {
		raw := row.Values[comp.name]
		if raw == "" {
			continue
		}

		period, err := s.periods.FindByLevelAndSuffix(ctx, ic.AcademicLevelID, comp.suffix)
		if errors.Is(err, sql.ErrNoRows) {
			// No component period configured for this level: the value is
			// simply not written.
			s.logger.Warn("no grading period for component",
				zap.String("academic_level_id", ic.AcademicLevelID),
				zap.String("suffix", comp.suffix))
			continue
		}
		if err != nil {
			entries = append(entries, reject(row.Number, comp.name, internalReason(err)))
			continue
		}

		value, err := ingest.ParseGrade(raw, scale)
		if err != nil {
			entries = append(entries, reject(row.Number, comp.name, err.Error()))
			continue
		}

		periodID := period.ID
		key := models.GradeRecordKey{
			StudentID:       student.ID,
			SubjectID:       subject.ID,
			AcademicLevelID: ic.AcademicLevelID,
			GradingPeriodID: &periodID,
			SchoolYear:      ic.SchoolYear,
		}
		entries = append(entries, s.upsertOne(ctx, row.Number, comp.name, key, value, ic.TeacherID))
	}
	return entries
}

// upsertOne resolves one grade fact to a persisted record: create when the
// key is vacant, overwrite when the existing record is editable, reject
// otherwise. Side effects are scoped to at most one record.
func (s *IngestService) upsertOne(ctx context.Context, rowNum int, component string, key models.GradeRecordKey, value float64, teacherID string) ingest.RowOutcome {
	now := s.now()

	existing, err := s.records.FindByKey(ctx, key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return reject(rowNum, component, internalReason(err))
	}

	if existing == nil {
		record := &models.GradeRecord{
			StudentID:       key.StudentID,
			SubjectID:       key.SubjectID,
			AcademicLevelID: key.AcademicLevelID,
			GradingPeriodID: key.GradingPeriodID,
			SchoolYear:      key.SchoolYear,
			Value:           value,
			CreatedBy:       teacherID,
			UpdatedBy:       teacherID,
			CreatedAt:       now,
		}
		created, err := s.records.Create(ctx, record)
		if err != nil {
			return reject(rowNum, component, internalReason(err))
		}
		if created {
			return ingest.RowOutcome{Row: rowNum, Component: component, Status: ingest.StatusCreated}
		}
		// Lost a create race: another upload owns the key now, fall through
		// to the update path against the winner's record.
		existing, err = s.records.FindByKey(ctx, key)
		if err != nil {
			return reject(rowNum, component, internalReason(err))
		}
	}

	state := ingest.Evaluate(existing.CreatedAt, existing.IsSubmitted, now, s.editWindow)
	if !ingest.Mutable(state) {
		return reject(rowNum, component, (&ingest.LockError{State: state}).Error())
	}

	updated, err := s.records.UpdateValue(ctx, existing.ID, value, teacherID, now.Add(-s.editWindow))
	if err != nil {
		return reject(rowNum, component, internalReason(err))
	}
	if !updated {
		// The write guard refused concurrently with our lock evaluation;
		// re-derive the state for an accurate reason.
		fresh, err := s.records.FindByKey(ctx, key)
		if err != nil {
			return reject(rowNum, component, internalReason(err))
		}
		state = ingest.Evaluate(fresh.CreatedAt, fresh.IsSubmitted, s.now(), s.editWindow)
		if !ingest.Mutable(state) {
			return reject(rowNum, component, (&ingest.LockError{State: state}).Error())
		}
		return reject(rowNum, component, "internal error: conditional update refused")
	}
	return ingest.RowOutcome{Row: rowNum, Component: component, Status: ingest.StatusUpdated}
}

// resolvePeriod picks the grading period key for single-fact layouts: the
// row's own period code when present, otherwise the context default,
// otherwise null.
func (s *IngestService) resolvePeriod(ctx context.Context, row *ingest.Row, ic ImportContext) (*string, error) {
	if row.PeriodCode != "" {
		period, err := s.periods.FindByLevelAndCode(ctx, ic.AcademicLevelID, row.PeriodCode)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("grading period not found: %s", row.PeriodCode)
		}
		if err != nil {
			return nil, errors.New(internalReason(err))
		}
		return &period.ID, nil
	}
	if ic.GradingPeriodID != "" {
		id := ic.GradingPeriodID
		return &id, nil
	}
	return nil, nil
}

func rejectRow(row *ingest.Row, reason string) ingest.RowOutcome {
	return reject(row.Number, "", reason)
}

func reject(rowNum int, component, reason string) ingest.RowOutcome {
	return ingest.RowOutcome{Row: rowNum, Component: component, Status: ingest.StatusRejected, Reason: reason}
}

func internalReason(err error) string {
	return "internal error: " + err.Error()
}
