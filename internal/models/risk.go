package models

// RiskLevel buckets a risk score for display.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// StudentRisk is a computed dropout-risk assessment for one student in one
// course. It is derived on read from grades and attendance, never stored.
type StudentRisk struct {
	StudentID     string    `json:"student_id"`
	StudentNumber string    `json:"student_number"`
	FullName      string    `json:"full_name"`
	CourseID      string    `json:"course_id"`
	Score         int       `json:"score"`
	Level         RiskLevel `json:"level"`
	Factors       []string  `json:"factors,omitempty"`
}

// RiskDistribution counts students per risk level.
type RiskDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}
