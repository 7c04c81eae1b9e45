package models

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"
)

// GradeItemType enumerates the gradable assessment kinds.
type GradeItemType string

const (
	GradeItemAssignment GradeItemType = "ASSIGNMENT"
	GradeItemQuiz       GradeItemType = "QUIZ"
	GradeItemMidterm    GradeItemType = "MIDTERM"
	GradeItemFinal      GradeItemType = "FINAL"
	GradeItemProject    GradeItemType = "PROJECT"
	GradeItemLab        GradeItemType = "LAB"
	GradeItemAttendance GradeItemType = "ATTENDANCE"
	GradeItemOther      GradeItemType = "OTHER"
)

// Valid reports whether the type is one of the known kinds.
func (t GradeItemType) Valid() bool {
	switch t {
	case GradeItemAssignment, GradeItemQuiz, GradeItemMidterm, GradeItemFinal,
		GradeItemProject, GradeItemLab, GradeItemAttendance, GradeItemOther:
		return true
	}
	return false
}

// GradeItem is a gradable assessment component of a course with a maximum
// score and a weight toward the course total.
type GradeItem struct {
	ID          string        `db:"id" json:"id"`
	CourseID    string        `db:"course_id" json:"course_id"`
	Title       string        `db:"title" json:"title"`
	Description *string       `db:"description" json:"description,omitempty"`
	Type        GradeItemType `db:"type" json:"type"`
	MaxScore    float64       `db:"max_score" json:"max_score"`
	Weight      float64       `db:"weight" json:"weight"`
	DueDate     *time.Time    `db:"due_date" json:"due_date,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// Grade is one student's recorded score for one grade item. At most one row
// exists per (student_id, grade_item_id); the submission timestamp is
// restamped on every write.
type Grade struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	GradeItemID string    `db:"grade_item_id" json:"grade_item_id"`
	Score       float64   `db:"score" json:"score"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

// GradeDetail enriches Grade with the student's identity for roster views.
type GradeDetail struct {
	Grade
	StudentNumber string `db:"student_number" json:"student_number"`
	FullName      string `db:"full_name" json:"full_name"`
}

// Score carries a numeric score across the wire. Clients historically send
// scores both as JSON numbers and as numeric strings, so both are accepted;
// anything that does not parse to a finite number fails to unmarshal.
type Score float64

// UnmarshalJSON coerces numbers and quoted numeric strings.
func (s *Score) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("score is required")
	}
	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(string(raw))
		if err != nil {
			return fmt.Errorf("invalid score literal %s", raw)
		}
		raw = []byte(unquoted)
	}
	value, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return fmt.Errorf("score %q is not numeric", raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("score %q is not finite", raw)
	}
	*s = Score(value)
	return nil
}

// Float64 returns the underlying value.
func (s Score) Float64() float64 {
	return float64(s)
}

// MarksMatrix is the marks endpoint shape: grade item ID to a mapping of
// student ID to score.
type MarksMatrix map[string]map[string]Score

// CourseMarks is the read-side payload for the marks endpoint.
type CourseMarks struct {
	GradeItems []GradeItem                   `json:"grade_items"`
	Students   []EnrollmentDetail            `json:"students"`
	Grades     map[string]map[string]float64 `json:"grades"`
}

// StudentCourseSummary is a single student's aggregate for one course.
// Overall is nil when the student has no graded work (never zero).
type StudentCourseSummary struct {
	StudentID      string   `json:"student_id"`
	StudentNumber  string   `json:"student_number"`
	FullName       string   `json:"full_name"`
	Overall        *int     `json:"overall"`
	RealizedWeight float64  `json:"realized_weight"`
	GradedItems    int      `json:"graded_items"`
	FlaggedItems   []string `json:"flagged_items,omitempty"`
}

// CourseSummary aggregates every enrolled student for a course.
type CourseSummary struct {
	CourseID string                 `json:"course_id"`
	Students []StudentCourseSummary `json:"students"`
}
