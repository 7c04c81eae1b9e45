package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupulse/retention-api/internal/models"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
)

type courseRepo interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListByProfessor(ctx context.Context, professorID string) ([]models.CourseDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Course, error)
}

// CreateCourseRequest is the payload for course creation.
type CreateCourseRequest struct {
	Code         string  `json:"code" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Description  *string `json:"description,omitempty"`
	Semester     string  `json:"semester" validate:"required"`
	AcademicYear string  `json:"academic_year" validate:"required"`
	Credits      int     `json:"credits" validate:"required,min=1"`
	MaxCapacity  *int    `json:"max_capacity,omitempty" validate:"omitempty,min=1"`
}

// CourseService manages the course catalogue.
type CourseService struct {
	courses   courseRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseRepo, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, validator: validate, logger: logger}
}

// Create registers a new course owned by the calling professor.
func (s *CourseService) Create(ctx context.Context, professorID string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
		Credits:      req.Credits,
		MaxCapacity:  req.MaxCapacity,
		ProfessorID:  professorID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code))
	return course, nil
}

// Get returns one course by ID.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// ListForProfessor returns a professor's courses with enrollment counts.
func (s *CourseService) ListForProfessor(ctx context.Context, professorID string) ([]models.CourseDetail, error) {
	courses, err := s.courses.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListForStudent returns the courses a student is actively enrolled in.
func (s *CourseService) ListForStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	courses, err := s.courses.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// AuthorizeProfessor verifies that the caller may manage the course.
// Admins always may; professors only when they own it.
func (s *CourseService) AuthorizeProfessor(ctx context.Context, courseID string, claims *models.JWTClaims) (*models.Course, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleAdmin {
		return course, nil
	}
	if course.ProfessorID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another professor")
	}
	return course, nil
}
