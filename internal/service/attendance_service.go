package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupulse/retention-api/internal/models"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
)

type attendanceRepo interface {
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error
	ListByCourseAndDate(ctx context.Context, courseID string, date time.Time) ([]models.AttendanceRecord, error)
	RatesByCourse(ctx context.Context, courseID string) (map[string]models.AttendanceRate, error)
}

// RecordAttendanceRequest records one day of attendance for a course.
type RecordAttendanceRequest struct {
	Date    string            `json:"date" validate:"required"`
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceEntry is one student's status within a day batch.
type AttendanceEntry struct {
	StudentID string                  `json:"student_id" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required"`
}

// AttendanceService records daily attendance per course. Re-recording the
// same day overwrites the earlier statuses, mirroring the grade upsert.
type AttendanceService struct {
	attendance attendanceRepo
	courses    courseReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(attendance attendanceRepo, courses courseReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{attendance: attendance, courses: courses, validator: validate, logger: logger}
}

// Record applies one day of attendance for a course in a single batch.
func (s *AttendanceService) Record(ctx context.Context, courseID string, req RecordAttendanceRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", req.Date))
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	seen := make(map[string]bool, len(req.Entries))
	for _, entry := range req.Entries {
		if !entry.Status.Valid() {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown attendance status %q", entry.Status))
		}
		if seen[entry.StudentID] {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate entry for student %s", entry.StudentID))
		}
		seen[entry.StudentID] = true
		records = append(records, models.AttendanceRecord{
			StudentID: entry.StudentID,
			CourseID:  courseID,
			Date:      date,
			Status:    entry.Status,
		})
	}

	if err := s.attendance.BulkUpsert(ctx, records); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.logger.Info("attendance recorded",
		zap.String("course_id", courseID),
		zap.String("date", req.Date),
		zap.Int("entries", len(records)))
	return len(records), nil
}

// ListForDay returns the recorded attendance of a course for one day.
func (s *AttendanceService) ListForDay(ctx context.Context, courseID, day string) ([]models.AttendanceRecord, error) {
	date, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", day))
	}
	records, err := s.attendance.ListByCourseAndDate(ctx, courseID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// Rates returns per-student attendance rates for a course.
func (s *AttendanceService) Rates(ctx context.Context, courseID string) (map[string]models.AttendanceRate, error) {
	rates, err := s.attendance.RatesByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	return rates, nil
}
