package service

import (
	"math"

	"github.com/edupulse/retention-api/internal/models"
)

// AggregateResult is the outcome of weighing one student's grades against a
// course's grade items. Overall is nil when no weight has been realized:
// a student with no recorded grades is ungraded, never 0%.
type AggregateResult struct {
	Overall        *int
	RealizedWeight float64
	GradedItems    int
	FlaggedItems   []string
}

// AggregateCourseGrade computes a student's overall percentage over the
// work graded so far. Each graded item contributes score/maxScore*weight to
// the numerator and its weight to the denominator; items without a grade
// are excluded from both, so the result reflects performance on attempted
// weight rather than a projection over the full course. A perfect score on
// the only graded 30%-weight item therefore reads 100, not 30.
//
// Items carrying a grade but a non-positive maxScore are skipped and
// reported in FlaggedItems rather than dividing by zero. Rounding is
// math.Round, half away from zero.
func AggregateCourseGrade(items []models.GradeItem, grades []models.Grade) AggregateResult {
	byItem := make(map[string]models.Grade, len(grades))
	for _, grade := range grades {
		byItem[grade.GradeItemID] = grade
	}

	var result AggregateResult
	var weighted float64
	for _, item := range items {
		grade, ok := byItem[item.ID]
		if !ok {
			continue
		}
		if item.MaxScore <= 0 {
			result.FlaggedItems = append(result.FlaggedItems, item.ID)
			continue
		}
		weighted += grade.Score / item.MaxScore * item.Weight
		result.RealizedWeight += item.Weight
		result.GradedItems++
	}

	if result.RealizedWeight > 0 {
		overall := int(math.Round(weighted / result.RealizedWeight * 100))
		result.Overall = &overall
	}
	return result
}
