package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupulse/retention-api/internal/models"
)

// CourseRepository handles course persistence.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, code, name, description, semester, academic_year, credits, max_capacity, professor_id, created_at, updated_at)
        VALUES (:id, :code, :name, :description, :semester, :academic_year, :credits, :max_capacity, :professor_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, description, semester, academic_year, credits, max_capacity, professor_id, created_at, updated_at
        FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListByProfessor returns a professor's courses with enrollment counts.
func (r *CourseRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.CourseDetail, error) {
	const query = `SELECT c.id, c.code, c.name, c.description, c.semester, c.academic_year, c.credits, c.max_capacity, c.professor_id, c.created_at, c.updated_at,
        COUNT(e.id) FILTER (WHERE e.status = 'ACTIVE') AS enrolled_count
        FROM courses c
        LEFT JOIN enrollments e ON e.course_id = c.id
        WHERE c.professor_id = $1
        GROUP BY c.id
        ORDER BY c.code`
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, professorID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListByStudent returns courses a student is actively enrolled in.
func (r *CourseRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	const query = `SELECT c.id, c.code, c.name, c.description, c.semester, c.academic_year, c.credits, c.max_capacity, c.professor_id, c.created_at, c.updated_at
        FROM courses c
        JOIN enrollments e ON e.course_id = c.id
        WHERE e.student_id = $1 AND e.status = $2
        ORDER BY c.code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return courses, nil
}
