// File: internal/domain/chat.go
package domain

import "time"

// Chat is a user-owned container of messages and metadata. ThreadID is the
// opaque handle to the provider-side conversation state; it stays empty until
// the first message in the chat establishes a thread.
type Chat struct {
	ID            uint       `json:"chat_id" gorm:"primarykey"`
	UserID        uint       `json:"-" gorm:"index;not null"`
	Title         string     `json:"title"`
	ThreadID      string     `json:"thread_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"-"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	MessageCount  int        `json:"message_count"`
}
