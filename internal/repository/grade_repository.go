package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupulse/retention-api/internal/models"
)

// GradeRepository handles grade persistence. The grades table carries a
// unique index on (student_id, grade_item_id); every write goes through an
// atomic insert-or-update so concurrent submissions for the same pair can
// never produce duplicate rows.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const upsertGradeQuery = `INSERT INTO grades (id, student_id, grade_item_id, score, submitted_at)
        VALUES (:id, :student_id, :grade_item_id, :score, :submitted_at)
        ON CONFLICT (student_id, grade_item_id)
        DO UPDATE SET score = EXCLUDED.score, submitted_at = EXCLUDED.submitted_at`

// Upsert inserts or overwrites the single grade row for the
// (student, grade item) pair, restamping the submission time.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	grade.SubmittedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, upsertGradeQuery, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// BulkUpsert applies all upserts in one transaction. Any failure rolls the
// whole batch back.
func (r *GradeRepository) BulkUpsert(ctx context.Context, grades []models.Grade) error {
	if len(grades) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grade batch: %w", err)
	}
	now := time.Now().UTC()
	for i := range grades {
		if grades[i].ID == "" {
			grades[i].ID = uuid.NewString()
		}
		grades[i].SubmittedAt = now
		if _, err := tx.NamedExecContext(ctx, upsertGradeQuery, grades[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert grade: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade batch: %w", err)
	}
	return nil
}

// FindByPair returns the grade for a (student, grade item) pair, if any.
func (r *GradeRepository) FindByPair(ctx context.Context, studentID, gradeItemID string) (*models.Grade, error) {
	const query = `SELECT id, student_id, grade_item_id, score, submitted_at FROM grades
        WHERE student_id = $1 AND grade_item_id = $2`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, studentID, gradeItemID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// ListByItem returns all grades for a grade item with student identity.
func (r *GradeRepository) ListByItem(ctx context.Context, gradeItemID string) ([]models.GradeDetail, error) {
	const query = `SELECT g.id, g.student_id, g.grade_item_id, g.score, g.submitted_at,
        s.student_number, u.full_name
        FROM grades g
        JOIN students s ON s.id = g.student_id
        JOIN users u ON u.id = s.user_id
        WHERE g.grade_item_id = $1
        ORDER BY u.full_name`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, gradeItemID); err != nil {
		return nil, fmt.Errorf("list grades for item: %w", err)
	}
	return grades, nil
}

// ListByCourse returns every grade belonging to a course's grade items.
func (r *GradeRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Grade, error) {
	const query = `SELECT g.id, g.student_id, g.grade_item_id, g.score, g.submitted_at
        FROM grades g
        JOIN grade_items gi ON gi.id = g.grade_item_id
        WHERE gi.course_id = $1`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, courseID); err != nil {
		return nil, fmt.Errorf("list grades for course: %w", err)
	}
	return grades, nil
}

// ListByStudentAndCourse returns one student's grades within a course.
func (r *GradeRepository) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Grade, error) {
	const query = `SELECT g.id, g.student_id, g.grade_item_id, g.score, g.submitted_at
        FROM grades g
        JOIN grade_items gi ON gi.id = g.grade_item_id
        WHERE g.student_id = $1 AND gi.course_id = $2`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}

// FetchByStudents returns course grades keyed by student ID.
func (r *GradeRepository) FetchByStudents(ctx context.Context, studentIDs []string, courseID string) (map[string][]models.Grade, error) {
	if len(studentIDs) == 0 {
		return map[string][]models.Grade{}, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, len(studentIDs)+1)
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	args[len(args)-1] = courseID
	query := fmt.Sprintf(`SELECT g.id, g.student_id, g.grade_item_id, g.score, g.submitted_at
        FROM grades g
        JOIN grade_items gi ON gi.id = g.grade_item_id
        WHERE g.student_id IN (%s) AND gi.course_id = $%d`, strings.Join(placeholders, ","), len(args))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch grades: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]models.Grade, len(studentIDs))
	for rows.Next() {
		var grade models.Grade
		if err := rows.StructScan(&grade); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		result[grade.StudentID] = append(result[grade.StudentID], grade)
	}
	return result, nil
}
