package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/retention-api/internal/models"
)

func item(id string, max, weight float64) models.GradeItem {
	return models.GradeItem{ID: id, MaxScore: max, Weight: weight}
}

func grade(itemID string, score float64) models.Grade {
	return models.Grade{GradeItemID: itemID, Score: score}
}

func TestAggregateCourseGrade_WeightedAverage(t *testing.T) {
	items := []models.GradeItem{
		item("hw", 50, 40),
		item("midterm", 100, 60),
	}
	grades := []models.Grade{
		grade("hw", 45),
		grade("midterm", 85),
	}

	// 0.9*40 + 0.85*60 = 87 over 100 realized weight.
	result := AggregateCourseGrade(items, grades)
	require.NotNil(t, result.Overall)
	assert.Equal(t, 87, *result.Overall)
	assert.Equal(t, 100.0, result.RealizedWeight)
	assert.Equal(t, 2, result.GradedItems)
	assert.Empty(t, result.FlaggedItems)
}

func TestAggregateCourseGrade_RealizedWeightDenominator(t *testing.T) {
	// Only a 30%-weight quiz is graded; a perfect score must read 100,
	// not 30, because ungraded items stay out of the denominator.
	items := []models.GradeItem{
		item("quiz", 10, 30),
		item("final", 100, 70),
	}
	grades := []models.Grade{grade("quiz", 10)}

	result := AggregateCourseGrade(items, grades)
	require.NotNil(t, result.Overall)
	assert.Equal(t, 100, *result.Overall)
	assert.Equal(t, 30.0, result.RealizedWeight)
	assert.Equal(t, 1, result.GradedItems)
}

func TestAggregateCourseGrade_Rounding(t *testing.T) {
	items := []models.GradeItem{item("essay", 100, 100)}
	grades := []models.Grade{grade("essay", 87.5)}

	result := AggregateCourseGrade(items, grades)
	require.NotNil(t, result.Overall)
	assert.Equal(t, 88, *result.Overall)
}

func TestAggregateCourseGrade_UngradedIsNil(t *testing.T) {
	items := []models.GradeItem{
		item("hw", 50, 40),
		item("midterm", 100, 60),
	}

	result := AggregateCourseGrade(items, nil)
	assert.Nil(t, result.Overall)
	assert.Zero(t, result.RealizedWeight)
	assert.Zero(t, result.GradedItems)
}

func TestAggregateCourseGrade_SkipsNonPositiveMaxScore(t *testing.T) {
	items := []models.GradeItem{
		item("broken", 0, 50),
		item("hw", 100, 50),
	}
	grades := []models.Grade{
		grade("broken", 5),
		grade("hw", 80),
	}

	result := AggregateCourseGrade(items, grades)
	require.NotNil(t, result.Overall)
	assert.Equal(t, 80, *result.Overall)
	assert.Equal(t, 50.0, result.RealizedWeight)
	assert.Equal(t, []string{"broken"}, result.FlaggedItems)
}

func TestAggregateCourseGrade_OnlyFlaggedItemsGraded(t *testing.T) {
	items := []models.GradeItem{item("broken", -1, 100)}
	grades := []models.Grade{grade("broken", 10)}

	result := AggregateCourseGrade(items, grades)
	assert.Nil(t, result.Overall)
	assert.Equal(t, []string{"broken"}, result.FlaggedItems)
}

func TestAggregateCourseGrade_IgnoresGradesForUnknownItems(t *testing.T) {
	items := []models.GradeItem{item("hw", 100, 100)}
	grades := []models.Grade{
		grade("hw", 90),
		grade("stale-item", 10),
	}

	result := AggregateCourseGrade(items, grades)
	require.NotNil(t, result.Overall)
	assert.Equal(t, 90, *result.Overall)
	assert.Equal(t, 1, result.GradedItems)
}
