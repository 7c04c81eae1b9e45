package models

import "time"

// Course represents a course taught by a professor.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	Semester     string    `db:"semester" json:"semester"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Credits      int       `db:"credits" json:"credits"`
	MaxCapacity  *int      `db:"max_capacity" json:"max_capacity,omitempty"`
	ProfessorID  string    `db:"professor_id" json:"professor_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with the enrolled-student count.
type CourseDetail struct {
	Course
	EnrolledCount int `db:"enrolled_count" json:"enrolled_count"`
}
