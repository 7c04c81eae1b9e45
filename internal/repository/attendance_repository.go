package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupulse/retention-api/internal/models"
)

// AttendanceRepository handles attendance persistence. Writes follow the
// same atomic insert-or-update pattern as grades, keyed on the unique
// (student_id, course_id, date) index.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const upsertAttendanceQuery = `INSERT INTO attendance_records (id, student_id, course_id, date, status, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :date, :status, :created_at, :updated_at)
        ON CONFLICT (student_id, course_id, date)
        DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`

// BulkUpsert records a day's attendance for many students in one
// transaction.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance batch: %w", err)
	}
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
		records[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, upsertAttendanceQuery, records[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert attendance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance batch: %w", err)
	}
	return nil
}

// ListByCourseAndDate returns the course roster's attendance for one day.
func (r *AttendanceRepository) ListByCourseAndDate(ctx context.Context, courseID string, date time.Time) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, student_id, course_id, date, status, created_at, updated_at
        FROM attendance_records WHERE course_id = $1 AND date = $2
        ORDER BY student_id`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, courseID, date); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// RatesByCourse aggregates per-student attendance rates for a course.
// PRESENT and LATE both count as attended; EXCUSED days are excluded from
// the denominator.
func (r *AttendanceRepository) RatesByCourse(ctx context.Context, courseID string) (map[string]models.AttendanceRate, error) {
	const query = `SELECT student_id,
        COUNT(*) FILTER (WHERE status <> 'EXCUSED') AS total,
        COUNT(*) FILTER (WHERE status IN ('PRESENT', 'LATE')) AS attended
        FROM attendance_records
        WHERE course_id = $1
        GROUP BY student_id`
	rows, err := r.db.QueryxContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("aggregate attendance: %w", err)
	}
	defer rows.Close()
	result := make(map[string]models.AttendanceRate)
	for rows.Next() {
		var rate models.AttendanceRate
		if err := rows.StructScan(&rate); err != nil {
			return nil, fmt.Errorf("scan attendance rate: %w", err)
		}
		if rate.Total > 0 {
			rate.Rate = float64(rate.Attended) / float64(rate.Total) * 100
		}
		result[rate.StudentID] = rate
	}
	return result, nil
}
