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

// weightTolerance absorbs float drift when comparing summed weights
// against the 100% course total.
const weightTolerance = 1e-9

type gradeItemRepo interface {
	Create(ctx context.Context, item *models.GradeItem) error
	FindByID(ctx context.Context, id string) (*models.GradeItem, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.GradeItem, error)
	SumWeights(ctx context.Context, courseID string) (float64, error)
	Delete(ctx context.Context, id string) error
}

// CreateGradeItemRequest is the payload for creating an assessment item.
type CreateGradeItemRequest struct {
	Title       string               `json:"title" validate:"required"`
	Description *string              `json:"description,omitempty"`
	Type        models.GradeItemType `json:"type" validate:"required"`
	MaxScore    float64              `json:"max_score" validate:"required,gt=0"`
	Weight      float64              `json:"weight" validate:"required,gt=0,lte=100"`
	DueDate     *time.Time           `json:"due_date,omitempty"`
}

// GradeItemService manages the gradable components of a course.
type GradeItemService struct {
	items     gradeItemRepo
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeItemService constructs GradeItemService.
func NewGradeItemService(items gradeItemRepo, courses courseReader, validate *validator.Validate, logger *zap.Logger) *GradeItemService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeItemService{items: items, courses: courses, validator: validate, logger: logger}
}

// Create adds a grade item to a course. The new item's weight plus the
// weights already allocated must stay within the 100% course total.
func (s *GradeItemService) Create(ctx context.Context, courseID string, req CreateGradeItemRequest) (*models.GradeItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade item payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown grade item type %q", req.Type))
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	allocated, err := s.items.SumWeights(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum weights")
	}
	if allocated+req.Weight > 100+weightTolerance {
		return nil, appErrors.Clone(appErrors.ErrInvalidWeights,
			fmt.Sprintf("weight %.2f exceeds remaining allocation %.2f", req.Weight, 100-allocated))
	}

	item := &models.GradeItem{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		MaxScore:    req.MaxScore,
		Weight:      req.Weight,
		DueDate:     req.DueDate,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade item")
	}
	s.logger.Info("grade item created",
		zap.String("course_id", courseID),
		zap.String("grade_item_id", item.ID),
		zap.Float64("weight", item.Weight))
	return item, nil
}

// Get returns one grade item.
func (s *GradeItemService) Get(ctx context.Context, id string) (*models.GradeItem, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "grade item not found")
	}
	return item, nil
}

// List returns a course's grade items in creation order.
func (s *GradeItemService) List(ctx context.Context, courseID string) ([]models.GradeItem, error) {
	items, err := s.items.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade items")
	}
	return items, nil
}

// Delete removes a grade item along with its recorded grades.
func (s *GradeItemService) Delete(ctx context.Context, id string) error {
	if _, err := s.items.FindByID(ctx, id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "grade item not found")
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade item")
	}
	return nil
}
