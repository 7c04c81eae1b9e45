package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupulse/retention-api/internal/models"
)

// MessageRepository handles message persistence.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create persists a new message.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO messages (id, sender_id, recipient_id, subject, body, created_at)
        VALUES (:id, :sender_id, :recipient_id, :subject, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// FindByID returns a message by ID.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	const query = `SELECT id, sender_id, recipient_id, subject, body, read_at, created_at
        FROM messages WHERE id = $1`
	var message models.Message
	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		return nil, err
	}
	return &message, nil
}

// List returns one user's mailbox view.
func (r *MessageRepository) List(ctx context.Context, filter models.MessageFilter) ([]models.MessageDetail, int, error) {
	column := "m.recipient_id"
	if filter.Box == "sent" {
		column = "m.sender_id"
	}
	clause := fmt.Sprintf(" WHERE %s = $1", column)
	args := []interface{}{filter.UserID}
	if filter.UnreadOnly && filter.Box != "sent" {
		clause += " AND m.read_at IS NULL"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	base := `FROM messages m
        JOIN users su ON su.id = m.sender_id
        JOIN users ru ON ru.id = m.recipient_id`

	query := fmt.Sprintf(`SELECT m.id, m.sender_id, m.recipient_id, m.subject, m.body, m.read_at, m.created_at,
        su.full_name AS sender_name, ru.full_name AS recipient_name
        %s ORDER BY m.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var messages []models.MessageDetail
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}
	return messages, total, nil
}

// MarkRead stamps a message as read.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	const query = `UPDATE messages SET read_at = $2 WHERE id = $1 AND read_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, readAt); err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}
