package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupulse/retention-api/internal/models"
	"github.com/edupulse/retention-api/internal/repository"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
)

type enrollmentRepo interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	FindByPair(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
	CountActiveByCourse(ctx context.Context, courseID string) (int, error)
	Delete(ctx context.Context, studentID, courseID string) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// EnrollRequest adds a student to a course roster.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// EnrollmentService manages course rosters.
type EnrollmentService struct {
	enrollments enrollmentRepo
	students    studentReader
	courses     courseReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(enrollments enrollmentRepo, students studentReader, courses courseReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		students:    students,
		courses:     courses,
		validator:   validate,
		logger:      logger,
	}
}

// Enroll adds a student to a course. Duplicate enrollments are rejected by
// the storage unique index; capacity is checked against active enrollments.
func (s *EnrollmentService) Enroll(ctx context.Context, courseID string, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if course.MaxCapacity != nil {
		count, err := s.enrollments.CountActiveByCourse(ctx, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
		}
		if count >= *course.MaxCapacity {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course is at capacity")
		}
	}

	enrollment := &models.Enrollment{StudentID: req.StudentID, CourseID: courseID}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	s.logger.Info("student enrolled",
		zap.String("course_id", courseID),
		zap.String("student_id", req.StudentID))
	return enrollment, nil
}

// Roster returns the active enrollments of a course with student identity.
func (s *EnrollmentService) Roster(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	roster, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return roster, nil
}

// Unenroll removes a student from a course roster.
func (s *EnrollmentService) Unenroll(ctx context.Context, courseID, studentID string) error {
	if err := s.enrollments.Delete(ctx, studentID, courseID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove enrollment")
	}
	return nil
}

// IsEnrolled reports whether the student has an active enrollment in the
// course.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	enrollment, err := s.enrollments.FindByPair(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	return enrollment.Status == models.EnrollmentStatusActive, nil
}
