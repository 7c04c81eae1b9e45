package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupulse/retention-api/internal/models"
	"github.com/edupulse/retention-api/internal/repository"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
)

type gradeRepo interface {
	Upsert(ctx context.Context, grade *models.Grade) error
	BulkUpsert(ctx context.Context, grades []models.Grade) error
	FindByPair(ctx context.Context, studentID, gradeItemID string) (*models.Grade, error)
	ListByItem(ctx context.Context, gradeItemID string) ([]models.GradeDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Grade, error)
	ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Grade, error)
	FetchByStudents(ctx context.Context, studentIDs []string, courseID string) (map[string][]models.Grade, error)
}

type gradeItemReader interface {
	FindByID(ctx context.Context, id string) (*models.GradeItem, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.GradeItem, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type rosterReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
}

// UpsertScoreRequest records one student's score for one grade item.
type UpsertScoreRequest struct {
	StudentID   string        `json:"student_id" validate:"required"`
	GradeItemID string        `json:"grade_item_id" validate:"required"`
	Score       *models.Score `json:"score" validate:"required"`
}

// ItemGradesRequest is the batch payload for one grade item.
type ItemGradesRequest struct {
	Grades []ItemGradeEntry `json:"grades" validate:"required,min=1,dive"`
}

// ItemGradeEntry is one (student, score) pair within an item batch.
type ItemGradeEntry struct {
	StudentID string        `json:"student_id" validate:"required"`
	Score     *models.Score `json:"score" validate:"required"`
}

// GradeService records scores and computes weighted course aggregates.
type GradeService struct {
	grades      gradeRepo
	items       gradeItemReader
	courses     courseReader
	enrollments rosterReader
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeRepo, items gradeItemReader, courses courseReader, enrollments rosterReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:      grades,
		items:       items,
		courses:     courses,
		enrollments: enrollments,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// UpsertScore records a single score idempotently: the one grade row for the
// (student, grade item) pair is created or overwritten in place and its
// submission timestamp restamped. The write is a single atomic
// insert-or-update backed by the storage unique index, so concurrent
// submissions cannot duplicate the pair.
func (s *GradeService) UpsertScore(ctx context.Context, req UpsertScoreRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	item, err := s.findItem(ctx, req.GradeItemID)
	if err != nil {
		return nil, err
	}
	if err := validateScoreRange(req.Score.Float64(), item); err != nil {
		return nil, err
	}

	grade := &models.Grade{
		StudentID:   req.StudentID,
		GradeItemID: req.GradeItemID,
		Score:       req.Score.Float64(),
	}
	if err := s.grades.Upsert(ctx, grade); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "concurrent grade submission, retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert grade")
	}
	s.recordWrite("single")
	s.invalidate(ctx, item.CourseID)
	return grade, nil
}

// BulkUpsertForItem applies a batch of scores against one grade item in a
// single transaction; any invalid entry or storage failure rejects the
// whole batch.
func (s *GradeService) BulkUpsertForItem(ctx context.Context, gradeItemID string, req ItemGradesRequest) ([]models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grades payload")
	}
	item, err := s.findItem(ctx, gradeItemID)
	if err != nil {
		return nil, err
	}

	grades := make([]models.Grade, 0, len(req.Grades))
	seen := make(map[string]bool, len(req.Grades))
	for _, entry := range req.Grades {
		if seen[entry.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate entry for student %s", entry.StudentID))
		}
		seen[entry.StudentID] = true
		if err := validateScoreRange(entry.Score.Float64(), item); err != nil {
			return nil, err
		}
		grades = append(grades, models.Grade{
			StudentID:   entry.StudentID,
			GradeItemID: gradeItemID,
			Score:       entry.Score.Float64(),
		})
	}

	if err := s.grades.BulkUpsert(ctx, grades); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert grades")
	}
	s.recordWrite("item_batch")
	s.invalidate(ctx, item.CourseID)
	return grades, nil
}

// UpsertMarks applies a course-wide marks matrix (grade item to student to
// score) as one all-or-nothing batch.
func (s *GradeService) UpsertMarks(ctx context.Context, courseID string, marks models.MarksMatrix) (int, error) {
	if len(marks) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "marks payload is empty")
	}
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return 0, err
	}
	items, err := s.items.ListByCourse(ctx, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade items")
	}
	byID := make(map[string]models.GradeItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var grades []models.Grade
	for itemID, entries := range marks {
		item, ok := byID[itemID]
		if !ok {
			return 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("grade item %s not found in course", itemID))
		}
		for studentID, score := range entries {
			if studentID == "" {
				return 0, appErrors.Clone(appErrors.ErrValidation, "student id is required")
			}
			if err := validateScoreRange(score.Float64(), &item); err != nil {
				return 0, err
			}
			grades = append(grades, models.Grade{
				StudentID:   studentID,
				GradeItemID: itemID,
				Score:       score.Float64(),
			})
		}
	}
	if len(grades) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "marks payload is empty")
	}

	if err := s.grades.BulkUpsert(ctx, grades); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert marks")
	}
	s.recordWrite("marks")
	s.invalidate(ctx, courseID)
	return len(grades), nil
}

// Item returns one grade item, mapping missing rows to a not-found error.
func (s *GradeService) Item(ctx context.Context, id string) (*models.GradeItem, error) {
	return s.findItem(ctx, id)
}

// ListForItem returns all recorded grades for one grade item.
func (s *GradeService) ListForItem(ctx context.Context, gradeItemID string) ([]models.GradeDetail, error) {
	if _, err := s.findItem(ctx, gradeItemID); err != nil {
		return nil, err
	}
	grades, err := s.grades.ListByItem(ctx, gradeItemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// Marks returns the course gradebook: items, roster and score matrix.
func (s *GradeService) Marks(ctx context.Context, courseID string) (*models.CourseMarks, error) {
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return nil, err
	}
	items, err := s.items.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade items")
	}
	roster, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	grades, err := s.grades.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}

	matrix := make(map[string]map[string]float64, len(items))
	for _, grade := range grades {
		if matrix[grade.GradeItemID] == nil {
			matrix[grade.GradeItemID] = make(map[string]float64)
		}
		matrix[grade.GradeItemID][grade.StudentID] = grade.Score
	}
	return &models.CourseMarks{GradeItems: items, Students: roster, Grades: matrix}, nil
}

// Summary computes the weighted aggregate for every enrolled student.
func (s *GradeService) Summary(ctx context.Context, courseID string) (*models.CourseSummary, error) {
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return nil, err
	}
	items, err := s.items.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade items")
	}
	roster, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	studentIDs := make([]string, 0, len(roster))
	for _, enrollment := range roster {
		studentIDs = append(studentIDs, enrollment.StudentID)
	}
	grades, err := s.grades.FetchByStudents(ctx, studentIDs, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grades")
	}

	summary := &models.CourseSummary{CourseID: courseID, Students: make([]models.StudentCourseSummary, 0, len(roster))}
	for _, enrollment := range roster {
		result := AggregateCourseGrade(items, grades[enrollment.StudentID])
		if len(result.FlaggedItems) > 0 {
			s.logger.Warn("grade items skipped during aggregation",
				zap.String("course_id", courseID),
				zap.String("student_id", enrollment.StudentID),
				zap.Strings("grade_item_ids", result.FlaggedItems))
		}
		summary.Students = append(summary.Students, models.StudentCourseSummary{
			StudentID:      enrollment.StudentID,
			StudentNumber:  enrollment.StudentNumber,
			FullName:       enrollment.FullName,
			Overall:        result.Overall,
			RealizedWeight: result.RealizedWeight,
			GradedItems:    result.GradedItems,
			FlaggedItems:   result.FlaggedItems,
		})
	}
	return summary, nil
}

// StudentSummary computes one student's aggregate for a course.
func (s *GradeService) StudentSummary(ctx context.Context, courseID, studentID string) (AggregateResult, error) {
	items, err := s.items.ListByCourse(ctx, courseID)
	if err != nil {
		return AggregateResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade items")
	}
	grades, err := s.grades.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return AggregateResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return AggregateCourseGrade(items, grades), nil
}

func (s *GradeService) findItem(ctx context.Context, id string) (*models.GradeItem, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade item id is required")
	}
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade item")
	}
	return item, nil
}

func (s *GradeService) findCourse(ctx context.Context, id string) (*models.Course, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *GradeService) recordWrite(kind string) {
	if s.metrics != nil {
		s.metrics.RecordGradeUpsert(kind)
	}
}

func (s *GradeService) invalidate(ctx context.Context, courseID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, "risk:"+courseID+":*"); err != nil {
		s.logger.Warn("risk cache invalidation failed", zap.String("course_id", courseID), zap.Error(err))
	}
}

func validateScoreRange(score float64, item *models.GradeItem) error {
	if score < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "score must not be negative")
	}
	if score > item.MaxScore {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("score %.2f exceeds max score %.2f for %q", score, item.MaxScore, item.Title))
	}
	return nil
}
