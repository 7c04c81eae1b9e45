package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	appErrors "github.com/edupulse/retention-api/pkg/errors"
	"github.com/edupulse/retention-api/pkg/export"
)

// ExportFormat selects the gradebook download encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportPDF  ExportFormat = "pdf"
	ExportXLSX ExportFormat = "xlsx"
)

// ExportResult carries the rendered document and its HTTP metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders a course gradebook into downloadable documents.
type ExportService struct {
	grades *GradeService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	xlsx   *export.XLSXExporter
	logger *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(grades *GradeService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		grades: grades,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		xlsx:   export.NewXLSXExporter(),
		logger: logger,
	}
}

// Gradebook renders the course marks matrix plus each student's overall
// aggregate in the requested format.
func (s *ExportService) Gradebook(ctx context.Context, courseID string, format ExportFormat) (*ExportResult, error) {
	marks, err := s.grades.Marks(ctx, courseID)
	if err != nil {
		return nil, err
	}
	summary, err := s.grades.Summary(ctx, courseID)
	if err != nil {
		return nil, err
	}
	overall := make(map[string]*int, len(summary.Students))
	for _, student := range summary.Students {
		overall[student.StudentID] = student.Overall
	}

	headers := []string{"Student Number", "Full Name"}
	for _, item := range marks.GradeItems {
		headers = append(headers, fmt.Sprintf("%s (%.0f%%)", item.Title, item.Weight))
	}
	headers = append(headers, "Overall")

	rows := make([]map[string]string, 0, len(marks.Students))
	for _, enrollment := range marks.Students {
		row := map[string]string{
			"Student Number": enrollment.StudentNumber,
			"Full Name":      enrollment.FullName,
		}
		for i, item := range marks.GradeItems {
			header := headers[2+i]
			if scores, ok := marks.Grades[item.ID]; ok {
				if score, ok := scores[enrollment.StudentID]; ok {
					row[header] = strconv.FormatFloat(score, 'f', -1, 64)
				}
			}
		}
		if aggregate := overall[enrollment.StudentID]; aggregate != nil {
			row["Overall"] = strconv.Itoa(*aggregate) + "%"
		}
		rows = append(rows, row)
	}

	dataset := export.Dataset{Headers: headers, Rows: rows}
	title := "Gradebook"

	switch format {
	case ExportCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: "gradebook.csv"}, nil
	case ExportPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: "gradebook.pdf"}, nil
	case ExportXLSX:
		content, err := s.xlsx.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render xlsx")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Filename:    "gradebook.xlsx",
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
