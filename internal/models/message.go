package models

import "time"

// Message is a store-and-forward note between two users. There is no
// realtime delivery; recipients poll their inbox.
type Message struct {
	ID          string     `db:"id" json:"id"`
	SenderID    string     `db:"sender_id" json:"sender_id"`
	RecipientID string     `db:"recipient_id" json:"recipient_id"`
	Subject     string     `db:"subject" json:"subject"`
	Body        string     `db:"body" json:"body"`
	ReadAt      *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// MessageDetail enriches Message with sender/recipient names.
type MessageDetail struct {
	Message
	SenderName    string `db:"sender_name" json:"sender_name"`
	RecipientName string `db:"recipient_name" json:"recipient_name"`
}

// MessageFilter selects a mailbox view for one user.
type MessageFilter struct {
	UserID     string
	Box        string // "inbox" or "sent"
	UnreadOnly bool
	Page       int
	PageSize   int
}
