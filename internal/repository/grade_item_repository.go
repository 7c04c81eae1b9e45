package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupulse/retention-api/internal/models"
)

// GradeItemRepository handles assessment item persistence.
type GradeItemRepository struct {
	db *sqlx.DB
}

// NewGradeItemRepository constructs the repository.
func NewGradeItemRepository(db *sqlx.DB) *GradeItemRepository {
	return &GradeItemRepository{db: db}
}

// Create persists a new grade item.
func (r *GradeItemRepository) Create(ctx context.Context, item *models.GradeItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO grade_items (id, course_id, title, description, type, max_score, weight, due_date, created_at, updated_at)
        VALUES (:id, :course_id, :title, :description, :type, :max_score, :weight, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create grade item: %w", err)
	}
	return nil
}

// FindByID returns a grade item by its ID.
func (r *GradeItemRepository) FindByID(ctx context.Context, id string) (*models.GradeItem, error) {
	const query = `SELECT id, course_id, title, description, type, max_score, weight, due_date, created_at, updated_at
        FROM grade_items WHERE id = $1`
	var item models.GradeItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByCourse returns all grade items for a course ordered by creation.
func (r *GradeItemRepository) ListByCourse(ctx context.Context, courseID string) ([]models.GradeItem, error) {
	const query = `SELECT id, course_id, title, description, type, max_score, weight, due_date, created_at, updated_at
        FROM grade_items WHERE course_id = $1 ORDER BY created_at`
	var items []models.GradeItem
	if err := r.db.SelectContext(ctx, &items, query, courseID); err != nil {
		return nil, fmt.Errorf("list grade items: %w", err)
	}
	return items, nil
}

// SumWeights returns the total weight already allocated within a course.
func (r *GradeItemRepository) SumWeights(ctx context.Context, courseID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(weight), 0) FROM grade_items WHERE course_id = $1`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, courseID); err != nil {
		return 0, fmt.Errorf("sum grade item weights: %w", err)
	}
	return total, nil
}

// Delete removes a grade item and, via FK cascade, its grades.
func (r *GradeItemRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM grade_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete grade item: %w", err)
	}
	return nil
}
