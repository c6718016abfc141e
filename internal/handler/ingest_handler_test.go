package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukita/gradebook-api/internal/ingest"
	"github.com/edukita/gradebook-api/internal/middleware"
	"github.com/edukita/gradebook-api/internal/models"
	"github.com/edukita/gradebook-api/internal/service"
	"github.com/edukita/gradebook-api/pkg/config"
	"github.com/edukita/gradebook-api/pkg/export"
)

type stubStudents struct{}

func (stubStudents) FindByKey(ctx context.Context, key string) (*models.Student, error) {
	if key == "S-001" {
		return &models.Student{ID: "stu-1", StudentNo: "S-001", FullName: "Jane Doe", Active: true}, nil
	}
	return nil, sql.ErrNoRows
}

type stubSubjects struct{}

func (stubSubjects) FindByCodeOrID(ctx context.Context, key string) (*models.Subject, error) {
	return &models.Subject{ID: "subj-1", Code: "MATH", AcademicLevelID: "level-11", Active: true}, nil
}

type stubAssignments struct{}

func (stubAssignments) IsAssigned(ctx context.Context, teacherID, subjectID, academicLevelID string) (bool, error) {
	return true, nil
}

type stubScales struct{}

func (stubScales) GetScale(ctx context.Context, academicLevelID string) (ingest.Scale, error) {
	return ingest.Scale{Min: 0, Max: 100}, nil
}

type stubPeriods struct{}

func (stubPeriods) FindByLevelAndSuffix(ctx context.Context, academicLevelID, suffix string) (*models.GradingPeriod, error) {
	return nil, sql.ErrNoRows
}

func (stubPeriods) FindByLevelAndCode(ctx context.Context, academicLevelID, code string) (*models.GradingPeriod, error) {
	return nil, sql.ErrNoRows
}

type stubRecords struct{}

func (stubRecords) FindByKey(ctx context.Context, key models.GradeRecordKey) (*models.GradeRecord, error) {
	return nil, sql.ErrNoRows
}

func (stubRecords) Create(ctx context.Context, record *models.GradeRecord) (bool, error) {
	record.ID = "rec-1"
	return true, nil
}

func (stubRecords) UpdateValue(ctx context.Context, id string, value float64, updatedBy string, createdAfter time.Time) (bool, error) {
	return true, nil
}

func newImportTestHandler() *IngestHandler {
	svc := service.NewIngestService(
		stubStudents{}, stubSubjects{}, stubAssignments{}, stubScales{}, stubPeriods{}, stubRecords{},
		nil, nil, nil, config.IngestConfig{},
	)
	return NewIngestHandler(svc, export.NewCSVExporter(), export.NewPDFExporter())
}

func newImportRequest(t *testing.T, csvBody string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "grades.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("subject_id", "subj-1"))
	require.NoError(t, writer.WriteField("academic_level_id", "level-11"))
	require.NoError(t, writer.WriteField("school_year", "2025/2026"))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/grades/import", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestIngestHandlerImportReturnsOutcome(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newImportTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = newImportRequest(t, "Student ID,Student Name,Grade,Remarks\nS-001,Jane Doe,88,\n")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})

	handler.Import(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data ingest.BatchOutcome `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, ingest.FormatSingleSubject, envelope.Data.Format)
	assert.Equal(t, 1, envelope.Data.SuccessCount)
	assert.Equal(t, 0, envelope.Data.ErrorCount)
}

func TestIngestHandlerImportCSVReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newImportTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := newImportRequest(t, "Student ID,Student Name,Grade,Remarks\nS-001,Jane Doe,88,\n")
	req.URL.RawQuery = "format=csv"
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})

	handler.Import(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "CREATED")
}

func TestIngestHandlerImportRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newImportTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/grades/import", nil)
	require.NoError(t, err)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})

	handler.Import(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestHandlerImportUnclassifiableFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newImportTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = newImportRequest(t, "just,two\n")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})

	handler.Import(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "FORMAT_ERROR")
}
