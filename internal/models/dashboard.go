package models

// CourseOverview is one course tile on the professor dashboard.
type CourseOverview struct {
	Course           CourseDetail     `json:"course"`
	AverageOverall   *int             `json:"average_overall"`
	GradedStudents   int              `json:"graded_students"`
	RiskDistribution RiskDistribution `json:"risk_distribution"`
}

// ProfessorDashboard summarises every course a professor teaches.
type ProfessorDashboard struct {
	ProfessorID string           `json:"professor_id"`
	Courses     []CourseOverview `json:"courses"`
}

// StudentCourseOverview is one course tile on the student dashboard.
type StudentCourseOverview struct {
	Course         Course   `json:"course"`
	Overall        *int     `json:"overall"`
	RealizedWeight float64  `json:"realized_weight"`
	GradedItems    int      `json:"graded_items"`
	AttendanceRate *float64 `json:"attendance_rate,omitempty"`
}

// StudentDashboard summarises one student's standing across their courses.
type StudentDashboard struct {
	Student StudentDetail           `json:"student"`
	Courses []StudentCourseOverview `json:"courses"`
}
