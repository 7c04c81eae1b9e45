package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/edupulse/retention-api/internal/models"
	"github.com/edupulse/retention-api/pkg/config"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
)

// RiskInput gathers the observable signals for one student in one course.
type RiskInput struct {
	Overall      *int
	Attendance   *models.AttendanceRate
	GradedItems  int
	TotalItems   int
	FlaggedItems int
}

// RiskService derives dropout-risk assessments from grades and attendance.
// Scores are rule-based and recomputed on read; nothing is persisted.
type RiskService struct {
	items       gradeItemReader
	grades      gradeRepo
	enrollments rosterReader
	attendance  attendanceRepo
	cache       *CacheService
	cfg         config.RiskConfig
	logger      *zap.Logger
}

// NewRiskService constructs RiskService.
func NewRiskService(items gradeItemReader, grades gradeRepo, enrollments rosterReader, attendance attendanceRepo, cache *CacheService, cfg config.RiskConfig, logger *zap.Logger) *RiskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GradeWeight <= 0 && cfg.AttendanceWeight <= 0 && cfg.MissingWorkWeight <= 0 {
		cfg.GradeWeight = 0.5
		cfg.AttendanceWeight = 0.3
		cfg.MissingWorkWeight = 0.2
	}
	if cfg.HighThreshold <= 0 {
		cfg.HighThreshold = 70
	}
	if cfg.MediumThreshold <= 0 {
		cfg.MediumThreshold = 40
	}
	return &RiskService{
		items:       items,
		grades:      grades,
		enrollments: enrollments,
		attendance:  attendance,
		cache:       cache,
		cfg:         cfg,
		logger:      logger,
	}
}

// ComputeRisk scores one student's inputs on a 0-100 scale where higher
// means more at risk. Each signal contributes its configured weight; a
// signal with no evidence (no graded work, no attendance records) drops
// out and the remaining weights are renormalized rather than letting the
// absence read as either perfect or failing.
func ComputeRisk(cfg config.RiskConfig, in RiskInput) (int, models.RiskLevel, []string) {
	var weighted, totalWeight float64
	var factors []string

	if in.Overall != nil {
		gradeRisk := float64(100 - *in.Overall)
		if gradeRisk < 0 {
			gradeRisk = 0
		}
		weighted += cfg.GradeWeight * gradeRisk
		totalWeight += cfg.GradeWeight
		if *in.Overall < 60 {
			factors = append(factors, fmt.Sprintf("course grade %d%%", *in.Overall))
		}
	}

	if in.Attendance != nil && in.Attendance.Total > 0 {
		attendanceRisk := 100 - in.Attendance.Rate
		if attendanceRisk < 0 {
			attendanceRisk = 0
		}
		weighted += cfg.AttendanceWeight * attendanceRisk
		totalWeight += cfg.AttendanceWeight
		if in.Attendance.Rate < 75 {
			factors = append(factors, fmt.Sprintf("attendance %.0f%%", in.Attendance.Rate))
		}
	}

	if in.TotalItems > 0 {
		missingRatio := float64(in.TotalItems-in.GradedItems) / float64(in.TotalItems)
		weighted += cfg.MissingWorkWeight * missingRatio * 100
		totalWeight += cfg.MissingWorkWeight
		if missingRatio > 0.3 {
			factors = append(factors, fmt.Sprintf("%d of %d items ungraded", in.TotalItems-in.GradedItems, in.TotalItems))
		}
	}

	if totalWeight == 0 {
		return 0, models.RiskLow, nil
	}

	score := int(math.Round(weighted / totalWeight))
	level := models.RiskLow
	switch {
	case float64(score) >= cfg.HighThreshold:
		level = models.RiskHigh
	case float64(score) >= cfg.MediumThreshold:
		level = models.RiskMedium
	}
	return score, level, factors
}

// CourseRisk assesses every actively enrolled student of a course, sorted
// most at-risk first. Results are cached per course when caching is on.
func (s *RiskService) CourseRisk(ctx context.Context, courseID string) ([]models.StudentRisk, error) {
	cacheKey := "risk:" + courseID + ":course"
	var cached []models.StudentRisk
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
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
	rates, err := s.attendance.RatesByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}

	risks := make([]models.StudentRisk, 0, len(roster))
	for _, enrollment := range roster {
		aggregate := AggregateCourseGrade(items, grades[enrollment.StudentID])
		input := RiskInput{
			Overall:      aggregate.Overall,
			GradedItems:  aggregate.GradedItems,
			TotalItems:   len(items),
			FlaggedItems: len(aggregate.FlaggedItems),
		}
		if rate, ok := rates[enrollment.StudentID]; ok {
			input.Attendance = &rate
		}
		score, level, factors := ComputeRisk(s.cfg, input)
		risks = append(risks, models.StudentRisk{
			StudentID:     enrollment.StudentID,
			StudentNumber: enrollment.StudentNumber,
			FullName:      enrollment.FullName,
			CourseID:      courseID,
			Score:         score,
			Level:         level,
			Factors:       factors,
		})
	}

	sort.SliceStable(risks, func(i, j int) bool { return risks[i].Score > risks[j].Score })

	if err := s.cache.Set(ctx, cacheKey, risks, 0); err != nil {
		s.logger.Warn("risk cache set failed", zap.String("course_id", courseID), zap.Error(err))
	}
	return risks, nil
}

// AtRisk returns the highest-scoring non-LOW students of a course, capped
// at the configured list size.
func (s *RiskService) AtRisk(ctx context.Context, courseID string) ([]models.StudentRisk, error) {
	risks, err := s.CourseRisk(ctx, courseID)
	if err != nil {
		return nil, err
	}
	max := s.cfg.AtRiskListMaxItems
	if max <= 0 {
		max = 20
	}
	atRisk := make([]models.StudentRisk, 0, max)
	for _, risk := range risks {
		if risk.Level == models.RiskLow {
			continue
		}
		atRisk = append(atRisk, risk)
		if len(atRisk) == max {
			break
		}
	}
	return atRisk, nil
}

// Distribution counts a course's students per risk level.
func (s *RiskService) Distribution(ctx context.Context, courseID string) (*models.RiskDistribution, error) {
	risks, err := s.CourseRisk(ctx, courseID)
	if err != nil {
		return nil, err
	}
	dist := &models.RiskDistribution{}
	for _, risk := range risks {
		switch risk.Level {
		case models.RiskHigh:
			dist.High++
		case models.RiskMedium:
			dist.Medium++
		default:
			dist.Low++
		}
	}
	return dist, nil
}
