// File: internal/domain/message.go
package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single message within a chat. OutOfContext marks assistant
// replies that fell outside the grounding document set.
type Message struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	ChatID       uint      `json:"chat_id" gorm:"index;not null"`
	Role         string    `json:"role" gorm:"not null;size:20"`
	Content      string    `json:"content" gorm:"not null"`
	OutOfContext bool      `json:"is_out_of_context"`
	CreatedAt    time.Time `json:"timestamp"`
}
