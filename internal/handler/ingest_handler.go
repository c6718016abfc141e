package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edukita/gradebook-api/internal/ingest"
	"github.com/edukita/gradebook-api/internal/service"
	appErrors "github.com/edukita/gradebook-api/pkg/errors"
	"github.com/edukita/gradebook-api/pkg/export"
	"github.com/edukita/gradebook-api/pkg/response"
)

// IngestHandler exposes the bulk grade import endpoint.
type IngestHandler struct {
	service     *service.IngestService
	csvExporter *export.CSVExporter
	pdfExporter *export.PDFExporter
}

// NewIngestHandler creates a new handler.
func NewIngestHandler(svc *service.IngestService, csvExporter *export.CSVExporter, pdfExporter *export.PDFExporter) *IngestHandler {
	return &IngestHandler{service: svc, csvExporter: csvExporter, pdfExporter: pdfExporter}
}

// Import godoc
// @Summary Import grades from a spreadsheet file
// @Description Upload a CSV file in one of the supported layouts and upsert its grade facts
// @Tags Grades
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Grade spreadsheet"
// @Param subject_id formData string false "Subject for single-subject and template layouts"
// @Param academic_level_id formData string true "Academic level"
// @Param school_year formData string true "School year, e.g. 2025/2026"
// @Param grading_period_id formData string false "Default grading period"
// @Param format query string false "Report format: csv or pdf (JSON when omitted)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /grades/import [post]
// @Security BearerAuth
func (h *IngestHandler) Import(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close()

	ic := service.ImportContext{
		TeacherID:       claims.UserID,
		SubjectID:       c.PostForm("subject_id"),
		AcademicLevelID: c.PostForm("academic_level_id"),
		SchoolYear:      c.PostForm("school_year"),
		GradingPeriodID: c.PostForm("grading_period_id"),
	}

	outcome, err := h.service.Run(c.Request.Context(), file, ic)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch c.Query("format") {
	case "csv":
		h.renderCSV(c, outcome)
	case "pdf":
		h.renderPDF(c, outcome)
	case "":
		response.JSON(c, http.StatusOK, outcome, nil)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported report format"))
	}
}

func (h *IngestHandler) renderCSV(c *gin.Context, outcome *ingest.BatchOutcome) {
	payload, err := h.csvExporter.Render(outcomeDataset(outcome))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="import-report.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

func (h *IngestHandler) renderPDF(c *gin.Context, outcome *ingest.BatchOutcome) {
	payload, err := h.pdfExporter.Render(outcomeDataset(outcome), "Grade Import Report")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="import-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}

func outcomeDataset(outcome *ingest.BatchOutcome) export.Dataset {
	data := export.Dataset{Headers: []string{"Row", "Component", "Status", "Reason"}}
	for _, entry := range outcome.Entries {
		data.Rows = append(data.Rows, map[string]string{
			"Row":       strconv.Itoa(entry.Row),
			"Component": entry.Component,
			"Status":    string(entry.Status),
			"Reason":    entry.Reason,
		})
	}
	data.Rows = append(data.Rows, map[string]string{
		"Row":    "",
		"Status": fmt.Sprintf("success=%d errors=%d", outcome.SuccessCount, outcome.ErrorCount),
	})
	return data
}
