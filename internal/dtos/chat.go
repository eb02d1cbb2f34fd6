// File: internal/dtos/chat.go
package dtos

import (
	"strings"
	"time"

	"github.com/iyunix/go-docchat/internal/domain"
)

const maxMessageLength = 10000

// SendMessageRequest is the payload for POST /api/chat. ThreadID is optional:
// absent on the first message of a chat, carried on every later one. The
// response's thread id is authoritative either way.
type SendMessageRequest struct {
	Message  string `json:"message"`
	ChatID   uint   `json:"chat_id"`
	ThreadID string `json:"thread_id,omitempty"`
}

func (r *SendMessageRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return NewValidationError("message", "message cannot be empty")
	}
	if len(r.Message) > maxMessageLength {
		return NewValidationError("message", "message too long")
	}
	if r.ChatID == 0 {
		return NewValidationError("chat_id", "chat_id is required")
	}
	return nil
}

// SendMessageResponse is the reply envelope for POST /api/chat.
type SendMessageResponse struct {
	Reply    string `json:"reply"`
	ThreadID string `json:"thread_id"`
}

// ThreadResponse is the envelope for POST /api/thread.
type ThreadResponse struct {
	ThreadID string `json:"thread_id"`
}

// CreateChatRequest is the payload for POST /api/chats.
type CreateChatRequest struct {
	Title string `json:"title"`
}

func (r *CreateChatRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		r.Title = "New Chat"
	}
	if len(r.Title) > 200 {
		return NewValidationError("title", "must be 200 characters or less")
	}
	return nil
}

// RenameChatRequest is the payload for PUT /api/chats/{id}/title.
type RenameChatRequest struct {
	Title string `json:"title"`
}

func (r *RenameChatRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return NewValidationError("title", "title is required")
	}
	if len(r.Title) > 200 {
		return NewValidationError("title", "must be 200 characters or less")
	}
	return nil
}

// ChatResponse is the public shape of a chat record.
type ChatResponse struct {
	ChatID        uint   `json:"chat_id"`
	Title         string `json:"title"`
	ThreadID      string `json:"thread_id,omitempty"`
	CreatedAt     string `json:"created_at"`
	LastMessageAt string `json:"last_message_at,omitempty"`
	MessageCount  int    `json:"message_count"`
}

// ChatListResponse is the envelope for GET /api/chats.
type ChatListResponse struct {
	Chats []ChatResponse `json:"chats"`
}

// MessageResponse is the public shape of a stored message. ContentHTML is only
// populated for assistant messages, whose content is markdown.
type MessageResponse struct {
	ID           uint   `json:"id"`
	Role         string `json:"role"`
	Content      string `json:"content"`
	ContentHTML  string `json:"content_html,omitempty"`
	OutOfContext bool   `json:"is_out_of_context"`
	Timestamp    string `json:"timestamp"`
}

// UploadResult reports the outcome for a single uploaded file. A rejected file
// never aborts the rest of the batch.
type UploadResult struct {
	Filename string `json:"filename"`
	Accepted bool   `json:"accepted"`
	FileID   string `json:"file_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UploadResponse is the envelope for POST /api/upload.
type UploadResponse struct {
	Success bool           `json:"success"`
	Files   []UploadResult `json:"files"`
}

// ChatFromDomain maps a domain.Chat to its public representation.
func ChatFromDomain(chat *domain.Chat) ChatResponse {
	resp := ChatResponse{
		ChatID:       chat.ID,
		Title:        chat.Title,
		ThreadID:     chat.ThreadID,
		CreatedAt:    chat.CreatedAt.Format(time.RFC3339),
		MessageCount: chat.MessageCount,
	}
	if chat.LastMessageAt != nil {
		resp.LastMessageAt = chat.LastMessageAt.Format(time.RFC3339)
	}
	return resp
}

// ChatListFromDomain maps a slice of chats preserving the registry's order.
func ChatListFromDomain(chats []domain.Chat) ChatListResponse {
	out := ChatListResponse{Chats: make([]ChatResponse, len(chats))}
	for i := range chats {
		out.Chats[i] = ChatFromDomain(&chats[i])
	}
	return out
}
