package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/edupulse/retention-api/internal/models"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
)

type professorCourseLister interface {
	ListByProfessor(ctx context.Context, professorID string) ([]models.CourseDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Course, error)
}

// DashboardService assembles read-side overviews for professors and
// students. Payloads are cached under dashboard:* keys; grade and
// attendance writes invalidate the whole namespace.
type DashboardService struct {
	courses    professorCourseLister
	grades     *GradeService
	risk       *RiskService
	attendance attendanceRepo
	students   studentRepo
	cache      *CacheService
	logger     *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(courses professorCourseLister, grades *GradeService, risk *RiskService, attendance attendanceRepo, students studentRepo, cache *CacheService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		courses:    courses,
		grades:     grades,
		risk:       risk,
		attendance: attendance,
		students:   students,
		cache:      cache,
		logger:     logger,
	}
}

// ProfessorOverview summarises every course a professor teaches: enrolled
// counts, the class average over graded students and the risk spread.
func (s *DashboardService) ProfessorOverview(ctx context.Context, professorID string) (*models.ProfessorDashboard, error) {
	cacheKey := "dashboard:professor:" + professorID
	var cached models.ProfessorDashboard
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	courses, err := s.courses.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	dashboard := &models.ProfessorDashboard{ProfessorID: professorID, Courses: make([]models.CourseOverview, 0, len(courses))}
	for _, course := range courses {
		overview := models.CourseOverview{Course: course}

		summary, err := s.grades.Summary(ctx, course.ID)
		if err != nil {
			return nil, err
		}
		var total, graded int
		for _, student := range summary.Students {
			if student.Overall != nil {
				total += *student.Overall
				graded++
			}
		}
		overview.GradedStudents = graded
		if graded > 0 {
			average := int(math.Round(float64(total) / float64(graded)))
			overview.AverageOverall = &average
		}

		dist, err := s.risk.Distribution(ctx, course.ID)
		if err != nil {
			return nil, err
		}
		overview.RiskDistribution = *dist

		dashboard.Courses = append(dashboard.Courses, overview)
	}

	if err := s.cache.Set(ctx, cacheKey, dashboard, 0); err != nil {
		s.logger.Warn("dashboard cache set failed", zap.String("professor_id", professorID), zap.Error(err))
	}
	return dashboard, nil
}

// StudentOverview summarises one student's standing across their active
// courses: weighted aggregate so far and attendance rate per course.
func (s *DashboardService) StudentOverview(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	cacheKey := "dashboard:student:" + studentID
	var cached models.StudentDashboard
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	courses, err := s.courses.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	dashboard := &models.StudentDashboard{Student: *student, Courses: make([]models.StudentCourseOverview, 0, len(courses))}
	for _, course := range courses {
		aggregate, err := s.grades.StudentSummary(ctx, course.ID, studentID)
		if err != nil {
			return nil, err
		}
		overview := models.StudentCourseOverview{
			Course:         course,
			Overall:        aggregate.Overall,
			RealizedWeight: aggregate.RealizedWeight,
			GradedItems:    aggregate.GradedItems,
		}

		rates, err := s.attendance.RatesByCourse(ctx, course.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
		}
		if rate, ok := rates[studentID]; ok && rate.Total > 0 {
			overview.AttendanceRate = &rate.Rate
		}

		dashboard.Courses = append(dashboard.Courses, overview)
	}

	if err := s.cache.Set(ctx, cacheKey, dashboard, 0); err != nil {
		s.logger.Warn("dashboard cache set failed", zap.String("student_id", studentID), zap.Error(err))
	}
	return dashboard, nil
}
