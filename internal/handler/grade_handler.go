package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edukita/gradebook-api/internal/middleware"
	"github.com/edukita/gradebook-api/internal/models"
	"github.com/edukita/gradebook-api/internal/service"
	appErrors "github.com/edukita/gradebook-api/pkg/errors"
	"github.com/edukita/gradebook-api/pkg/response"
)

// GradeHandler wires HTTP endpoints to the grade record service.
type GradeHandler struct {
	service *service.GradeRecordService
}

// NewGradeHandler creates a new handler.
func NewGradeHandler(svc *service.GradeRecordService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// List godoc
// @Summary List grade records
// @Tags Grades
// @Produce json
// @Param student_id query string false "Student filter"
// @Param subject_id query string false "Subject filter"
// @Param academic_level_id query string false "Academic level filter"
// @Param grading_period_id query string false "Grading period filter"
// @Param school_year query string false "School year filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /grades [get]
// @Security BearerAuth
func (h *GradeHandler) List(c *gin.Context) {
	filter := models.GradeRecordFilter{
		StudentID:       c.Query("student_id"),
		SubjectID:       c.Query("subject_id"),
		AcademicLevelID: c.Query("academic_level_id"),
		GradingPeriodID: c.Query("grading_period_id"),
		SchoolYear:      c.Query("school_year"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Submit godoc
// @Summary Submit grade records for validation
// @Description Lock editable grade records pending registrar validation
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.SubmitGradesRequest true "Record IDs"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /grades/submit [post]
// @Security BearerAuth
func (h *GradeHandler) Submit(c *gin.Context) {
	req, ok := h.bindStateRequest(c)
	if !ok {
		return
	}

	result, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Unsubmit godoc
// @Summary Revert submitted grade records to editable
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.SubmitGradesRequest true "Record IDs"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /grades/unsubmit [post]
// @Security BearerAuth
func (h *GradeHandler) Unsubmit(c *gin.Context) {
	req, ok := h.bindStateRequest(c)
	if !ok {
		return
	}

	result, err := h.service.Unsubmit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete an editable grade record
// @Tags Grades
// @Produce json
// @Param id path string true "Grade record ID"
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grades/{id} [delete]
// @Security BearerAuth
func (h *GradeHandler) Delete(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *GradeHandler) bindStateRequest(c *gin.Context) (service.SubmitGradesRequest, bool) {
	claims, ok := currentClaims(c)
	if !ok {
		return service.SubmitGradesRequest{}, false
	}

	var payload struct {
		RecordIDs []string `json:"record_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "record_ids required"))
		return service.SubmitGradesRequest{}, false
	}

	return service.SubmitGradesRequest{TeacherID: claims.UserID, RecordIDs: payload.RecordIDs}, true
}

func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claimsValue, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claimsValue.(*models.JWTClaims), true
}
