package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edupulse/retention-api/internal/models"
	"github.com/edupulse/retention-api/pkg/config"
)

func riskConfig() config.RiskConfig {
	return config.RiskConfig{
		GradeWeight:       0.5,
		AttendanceWeight:  0.3,
		MissingWorkWeight: 0.2,
		HighThreshold:     70,
		MediumThreshold:   40,
	}
}

func intPtr(v int) *int { return &v }

func TestComputeRisk_HealthyStudent(t *testing.T) {
	score, level, factors := ComputeRisk(riskConfig(), RiskInput{
		Overall:     intPtr(92),
		Attendance:  &models.AttendanceRate{Total: 20, Attended: 19, Rate: 95},
		GradedItems: 5,
		TotalItems:  5,
	})
	assert.Equal(t, models.RiskLow, level)
	assert.Less(t, score, 40)
	assert.Empty(t, factors)
}

func TestComputeRisk_FailingAndAbsent(t *testing.T) {
	score, level, factors := ComputeRisk(riskConfig(), RiskInput{
		Overall:     intPtr(25),
		Attendance:  &models.AttendanceRate{Total: 20, Attended: 8, Rate: 40},
		GradedItems: 2,
		TotalItems:  6,
	})
	// 0.5*75 + 0.3*60 + 0.2*66.7 = 68.8 -> 69, MEDIUM just under HIGH.
	assert.Equal(t, 69, score)
	assert.Equal(t, models.RiskMedium, level)
	assert.Len(t, factors, 3)
}

func TestComputeRisk_HighRisk(t *testing.T) {
	score, level, _ := ComputeRisk(riskConfig(), RiskInput{
		Overall:     intPtr(10),
		Attendance:  &models.AttendanceRate{Total: 10, Attended: 2, Rate: 20},
		GradedItems: 1,
		TotalItems:  10,
	})
	assert.GreaterOrEqual(t, score, 70)
	assert.Equal(t, models.RiskHigh, level)
}

func TestComputeRisk_NoEvidenceRenormalizes(t *testing.T) {
	// No graded work and no attendance: only the missing-work signal
	// remains, so everything missing reads as full risk on that axis.
	score, level, _ := ComputeRisk(riskConfig(), RiskInput{
		GradedItems: 0,
		TotalItems:  4,
	})
	assert.Equal(t, 100, score)
	assert.Equal(t, models.RiskHigh, level)

	// No signals at all scores zero rather than guessing.
	score, level, factors := ComputeRisk(riskConfig(), RiskInput{})
	assert.Zero(t, score)
	assert.Equal(t, models.RiskLow, level)
	assert.Empty(t, factors)
}

func TestComputeRisk_AttendanceWithoutSessionsIgnored(t *testing.T) {
	withEmpty, _, _ := ComputeRisk(riskConfig(), RiskInput{
		Overall:     intPtr(80),
		Attendance:  &models.AttendanceRate{Total: 0},
		GradedItems: 3,
		TotalItems:  3,
	})
	without, _, _ := ComputeRisk(riskConfig(), RiskInput{
		Overall:     intPtr(80),
		GradedItems: 3,
		TotalItems:  3,
	})
	assert.Equal(t, without, withEmpty)
}
